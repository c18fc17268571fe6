// Command reclaim is the operator CLI for the reclaim daemon. It triggers
// scans and audits, manages quarantined files and scan roots, and inspects
// daemon state over the control socket.
package main
