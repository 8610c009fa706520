// Command socialharvest runs the content harvesting service, either as
// an HTTP server or as a one-shot CLI harvest.
package main

func main() {
	execute()
}
