// Command fatx analyzes FATX partition images and recovers deleted files.
package main

func main() {
	Execute()
}
