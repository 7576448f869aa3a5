// Package loader drives the listening loop and, once it stops, boots the
// task it produced.
//
// Ownership boundary:
//   - the loop owns the task while running; Run and Wait hand it back only
//     after the loop has stopped
//   - the dispatcher owns it from then on and never returns on success
package loader
