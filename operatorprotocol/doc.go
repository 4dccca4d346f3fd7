// Package operatorprotocol implements the line-based text protocol spoken by
// the BCI2000 Operator over its telnet interface.
//
// # Protocol Overview
//
// The Operator accepts one command per line and answers with zero or more
// lines of free text, followed by a prompt line:
//
//	Request:   <command>\r\n
//	Response:  [text lines\n]> 
//
// The response carries no structured status. Clients infer success from the
// presence of the prompt character, from a leading integer in the text, or
// from silence (see IsSuccess). Arbitrary text embedded in a command, such as
// a line from a parameter file, is made single-line safe with EscapeLine.
//
// Example Session:
//
//	CLI: get system state
//	SRV: Resting
//	SRV: >
//	CLI: is parameter "SamplingRate"
//	SRV: true
//	SRV: >
//
// # Basic Usage
//
// Create a connection and execute commands:
//
//	conn := operatorprotocol.NewConn(operatorprotocol.DefaultAddress)
//	if err := conn.Connect(); err != nil {
//	    log.Fatal(err)
//	}
//	defer conn.Disconnect()
//
//	resp, status, err := conn.Execute(operatorprotocol.IsParameterCommand("SamplingRate"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(resp, status)
//
// Higher-level sequencing (module startup, configuration, start and stop)
// lives in package remote, which consumes the Connection interface defined
// here.
//
// # Thread Safety
//
// Conn serialises Execute calls with a mutex, but the protocol itself has no
// request identifiers: a single Conn should be driven by one caller at a time.
package operatorprotocol
