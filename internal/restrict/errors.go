package restrict

import (
	"fmt"
	"strings"

	"github.com/emberfem/ember/internal/region"
)

// ConfigError reports invalid restriction configuration: region names that
// do not exist on the mesh, or simultaneous restriction on both axes without
// the dual-restriction flag. Fatal to the owning object's setup.
type ConfigError struct {
	Object string
	Axis   region.Axis

	// Unknown lists every configured name that failed to resolve. Empty for
	// dual-restriction conflicts.
	Unknown []string

	msg string
}

func (e *ConfigError) Error() string { return e.msg }

func newUnknownNamesError(object string, axis region.Axis, unknown []string) *ConfigError {
	return &ConfigError{
		Object:  object,
		Axis:    axis,
		Unknown: unknown,
		msg: fmt.Sprintf("restrict: object %q: the following %s region names do not exist on the mesh: %s",
			object, axis, strings.Join(unknown, ", ")),
	}
}

func newConflictError(object string, axis region.Axis) *ConfigError {
	other := region.Block
	if axis == region.Block {
		other = region.Boundary
	}
	return &ConfigError{
		Object: object,
		Axis:   axis,
		msg: fmt.Sprintf("restrict: object %q: attempted to restrict by %s, but the object is already restricted by %s and dual restriction is not permitted",
			object, axis, other),
	}
}
