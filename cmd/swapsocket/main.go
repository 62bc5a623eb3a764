// Command swapsocket runs a swapsocket echo server or client.
package main

func main() {
	Execute()
}
