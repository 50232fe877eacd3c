package logic

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	ErrInvalidConfig    = errors.New("invalid configuration")
	ErrTypeMismatch     = errors.New("type mismatch")
	ErrForeignEngine    = errors.New("object belongs to another engine")
	ErrPropertyGone     = errors.New("property no longer exists")
	ErrNodeGone         = errors.New("node no longer exists")
	ErrNotLeaf          = errors.New("property is a struct or array")
	ErrOutputReadOnly   = errors.New("output properties cannot be set")
	ErrLinkDirection    = errors.New("links must go from an output to an input")
	ErrSelfLink         = errors.New("cannot link a node to itself")
	ErrAlreadyLinked    = errors.New("input already has an incoming link")
	ErrNotLinked        = errors.New("properties are not linked")
	ErrCycle            = errors.New("cycle among strongly linked nodes")
	ErrInUse            = errors.New("object is still in use")
	ErrUpdateInProgress = errors.New("update already in progress")
)

// ConfigError is returned by node and data array factories.
type ConfigError struct {
	Name string
	Err  error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("cannot create %q: %v", e.Name, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

func configErr(name string, err error) error {
	return &ConfigError{Name: name, Err: err}
}

// LinkError is returned by Link, LinkWeak and Unlink. The graph is unchanged.
type LinkError struct {
	Source string
	Target string
	Err    error
}

func (e *LinkError) Error() string {
	return fmt.Sprintf("link %s -> %s: %v", e.Source, e.Target, e.Err)
}

func (e *LinkError) Unwrap() error { return e.Err }

// RuntimeError aborts an update. Nodes executed before the failing one keep
// their new state.
type RuntimeError struct {
	Node   string
	NodeID NodeID
	Err    error
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("node %q (%d) failed: %v", e.Node, e.NodeID, e.Err)
}

func (e *RuntimeError) Unwrap() error { return e.Err }
