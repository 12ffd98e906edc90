// Package editerr defines the error taxonomy shared by the editor, the
// store client and the store server.
//
// Every failure is an *Error with a Kind:
//   - Validation: bad input (unknown token, missing id, nothing to save).
//     Nothing changed.
//   - NotFound: the component or its original is absent.
//   - Busy: a save or reset is already in flight, or a load or reset is
//     about to replace the document.
//   - Stale: the selected element no longer exists.
//   - Network, HTTP and Parse: transient store failures. Local edits stay
//     intact and the operator retries.
//
// Use the IsXxx helpers rather than comparing kinds directly; they see
// through fmt.Errorf wrapping:
//
//	if err := session.Save(); editerr.IsBusy(err) {
//	    // wait for the current request
//	}
//
// ShortMessage gives the one-line text shown in status bars.
package editerr
