// Package boot is the last step of a load: stage the trampoline, make it
// visible, reset the machine and jump. Every platform-specific effect goes
// through Target so the dispatcher can be driven against a recording target.
package boot
