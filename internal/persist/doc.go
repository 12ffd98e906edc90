// Package persist tracks the save state of one component.
//
// Controller moves between Idle, Dirty, Saving, Success and Error. It
// allows one request in flight and matches each outcome to its request
// by sequence number, so late outcomes are ignored. A save records the
// edit revision it carried; edits made while it runs leave the state
// Dirty when it succeeds.
package persist
