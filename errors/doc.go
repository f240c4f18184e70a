// Package errors provides standardized error handling for the flow builder core.
//
// # Overview
//
// Errors fall into three classes: Transient (a collaborator timed out or failed
// and the call may be retried), Invalid (the caller supplied bad input and must
// fix it), and Fatal (an internal invariant broke). Every graph mutation that is
// refused returns an Invalid error; nothing in this module terminates the host
// process.
//
// # Taxonomy
//
// The graph and validation layers report their failures through sentinels that
// survive any amount of wrapping:
//
//	ErrUnknownNodeType       type id not in the registry
//	ErrNodeNotFound          node id not in the graph
//	ErrPortNotFound          port id not on the type, or wrong direction
//	ErrPortAlreadyConnected  required input already occupied
//	ErrIncompatiblePortTypes data types do not match
//	ErrInvalidConnection     self-loop and similar shapes
//	ErrValidationFailed      save or test gated by a non-empty error map
//
// ValidationFailedError carries the path to message map and matches
// ErrValidationFailed:
//
//	if err := session.Save(ctx); errors.Is(err, errors.ErrValidationFailed) {
//	    paths, _ := errors.ValidationErrors(err)
//	    render(paths)
//	}
//
// # Error Wrapping Pattern
//
// All wrapping follows the format "component.method: action failed: cause":
//
//	return errors.WrapInvalid(err, "Graph", "Connect", "port lookup")
//
// Invalidf is a shorthand for the common case of a sentinel plus a formatted
// detail:
//
//	return errors.Invalidf(errors.ErrNodeNotFound, "Graph", "MoveNode", "node %q", id)
package errors
