// Command opensky queries the OpenSky Network REST API from the terminal.
package main

func main() {
	Execute()
}
