// Package transport owns the raw byte channel a loader session runs over.
//
// A Channel delivers timeout-bounded receives and a flush that discards whatever
// an aborted transfer left behind. One session never outlives one flush.
package transport
