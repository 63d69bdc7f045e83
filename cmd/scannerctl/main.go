// Command scannerctl is the operator CLI for the scanner daemon: trigger
// scans, check status, and parse release names locally against the same
// guesser scannerd uses.
package main

func main() {
	Execute()
}
