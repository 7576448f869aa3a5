// Package format sniffs the binary formats a loader session may deliver.
//
// Every sniffer is pure: it reads only inside the slice it is given and checks
// the slice length against its header size before touching a field. Classify
// tries TPL, then GCI, then DOL; the first match wins.
package format
