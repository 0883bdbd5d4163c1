// Command forgeauth is the thin CLI wrapper around the auth/handoff
// core: it translates flags into library calls and maps error kinds to
// process exit codes. It is not part of the core itself.
package main

func main() {
	Execute()
}
