package txn

import (
	"database/sql"
	"fmt"
)

// Isolation is a requested transaction isolation level. Levels are ordered
// from weakest to strictest so that fallback can pick the strictest
// supported level of a restricted backend.
type Isolation int

// Isolation levels from weakest to strictest.
const (
	// IsolationDefault leaves the choice to the backend.
	IsolationDefault Isolation = iota
	// IsolationReadUncommitted is the lowest isolation level.
	IsolationReadUncommitted
	// IsolationReadCommitted prevents dirty reads.
	IsolationReadCommitted
	// IsolationRepeatableRead prevents non-repeatable reads.
	IsolationRepeatableRead
	// IsolationSerializable is the strictest isolation level.
	IsolationSerializable
)

// String returns the canonical name of the isolation level.
func (i Isolation) String() string {
	switch i {
	case IsolationDefault:
		return "default"
	case IsolationReadUncommitted:
		return "read_uncommitted"
	case IsolationReadCommitted:
		return "read_committed"
	case IsolationRepeatableRead:
		return "repeatable_read"
	case IsolationSerializable:
		return "serializable"
	default:
		return fmt.Sprintf("isolation(%d)", int(i))
	}
}

// SQLLevel maps the isolation level to the database/sql equivalent.
func (i Isolation) SQLLevel() sql.IsolationLevel {
	switch i {
	case IsolationReadUncommitted:
		return sql.LevelReadUncommitted
	case IsolationReadCommitted:
		return sql.LevelReadCommitted
	case IsolationRepeatableRead:
		return sql.LevelRepeatableRead
	case IsolationSerializable:
		return sql.LevelSerializable
	default:
		return sql.LevelDefault
	}
}

// ParseIsolation converts a string to an Isolation level.
func ParseIsolation(s string) (Isolation, error) {
	switch s {
	case "", "default":
		return IsolationDefault, nil
	case "read_uncommitted":
		return IsolationReadUncommitted, nil
	case "read_committed":
		return IsolationReadCommitted, nil
	case "repeatable_read":
		return IsolationRepeatableRead, nil
	case "serializable":
		return IsolationSerializable, nil
	default:
		return IsolationDefault, fmt.Errorf("invalid isolation level: %s", s)
	}
}

// ResolveIsolation negotiates the requested isolation level against the
// backend's capabilities. A default request always passes through untouched.
// Backends that declare no restriction get the requested level verbatim.
// Backends with a restricted set get the requested level if supported,
// otherwise the strictest level they do support: a caller asking for an
// unsupported level is given a stronger guarantee, never a weaker one.
func ResolveIsolation(res Resource, requested Isolation) Isolation {
	if requested == IsolationDefault {
		return IsolationDefault
	}
	supported := res.SupportedIsolation()
	if len(supported) == 0 {
		return requested
	}
	strictest := supported[0]
	for _, lvl := range supported {
		if lvl == requested {
			return requested
		}
		if lvl > strictest {
			strictest = lvl
		}
	}
	return strictest
}
