// Command zamrzovalnik keeps a freezer inventory on this device and syncs it
// with a remote row store.
package main

func main() {
	Execute()
}
