package diagnostics

// Code identifies one rejection condition. The W0xx range is manifest
// syntax, W1xx is composition semantics, W2xx is package scanning, and
// W3xx is emission. Codes are stable; messages are not.
type Code string

const (
	ErrW001 Code = "W001" // manifest unreadable
	ErrW002 Code = "W002" // YAML syntax error
	ErrW003 Code = "W003" // missing or empty required field
	ErrW004 Code = "W004" // invalid field value

	ErrW101 Code = "W101" // composite declares no elements
	ErrW102 Code = "W102" // duplicate identity inside a composite
	ErrW103 Code = "W103" // identity not a member of the domain
	ErrW104 Code = "W104" // duplicate (identity, type) pairing
	ErrW105 Code = "W105" // derived Go name collision
	ErrW106 Code = "W106" // filter references an identity outside the domain
	ErrW107 Code = "W107" // filter position out of range
	ErrW108 Code = "W108" // predicate expression failed to evaluate
	ErrW109 Code = "W109" // filter references a label no element declares
	ErrW110 Code = "W110" // duplicate name (composite, op, arg)
	ErrW111 Code = "W111" // duplicate identity in the domain declaration
	ErrW112 Code = "W112" // malformed identifier

	ErrW201 Code = "W201" // target package failed to load
	ErrW202 Code = "W202" // element type not found in target package
	ErrW203 Code = "W203" // action method missing or incompatible
	ErrW204 Code = "W204" // external domain type or constant not found
	ErrW205 Code = "W205" // target package name differs from manifest

	ErrW301 Code = "W301" // argument type references an undeclared import
	ErrW302 Code = "W302" // generated output could not be formatted
)

// messages maps codes to their format strings. Every message carries
// the offending values; a diagnostic that names no concrete identity,
// position, or type is a bug.
var messages = map[Code]string{
	ErrW001: "cannot read manifest: %v",
	ErrW002: "invalid YAML: %v",
	ErrW003: "%s is required",
	ErrW004: "%s: unsupported value %q (want %s)",

	ErrW101: "composite %q declares no elements",
	ErrW102: "identity %q welded twice in composite %q (types %s and %s)",
	ErrW103: "identity %q is not declared in domain %s",
	ErrW104: "element (%s, %s) declared twice in composite %q",
	ErrW105: "%s and %s both map to Go name %q",
	ErrW106: "filter of op %q names identity %q outside domain %s",
	ErrW107: "filter of op %q selects position %d, but composite %q has only %d elements",
	ErrW108: "filter expression of op %q failed for element %q: %v",
	ErrW109: "filter of op %q names label %q, declared by no element of composite %q",
	ErrW110: "duplicate %s %q",
	ErrW111: "identity %q declared twice in domain %s",
	ErrW112: "%s: %q is not a valid identifier",

	ErrW201: "cannot load package %q: %v",
	ErrW202: "element type %q not found in package %s",
	ErrW203: "op %q: type %s: method %s %s",
	ErrW204: "external domain %s: %s",
	ErrW205: "manifest declares package %q but directory %s holds package %q",

	ErrW301: "%s: unknown package qualifier %q (declare it under imports)",
	ErrW302: "formatting %s: %v",
}
