package viz

import "strconv"

// Action is the wire-level action code carried by a scene event.
type Action uint8

const (
	// ActionUpsert creates the addressed entity or modifies it in place.
	ActionUpsert Action = 0
	// ActionDeprecated is the retired modify code. It is accepted for
	// compatibility but produces only a diagnostic.
	ActionDeprecated Action = 1
	// ActionDelete removes the addressed entity.
	ActionDelete Action = 2
	// ActionDeleteAll removes every entity in the registry.
	ActionDeleteAll Action = 3
)

func (a Action) String() string {
	switch a {
	case ActionUpsert:
		return "upsert"
	case ActionDeprecated:
		return "deprecated-modify"
	case ActionDelete:
		return "delete"
	case ActionDeleteAll:
		return "delete-all"
	}
	return "unknown(" + strconv.Itoa(int(a)) + ")"
}

// EntityKey identifies one visual entity across its update stream. It is the
// marker namespace concatenated with the numeric id.
type EntityKey string

// MakeKey builds the registry lookup key for a namespace and id.
func MakeKey(namespace string, id int32) EntityKey {
	return EntityKey(namespace + strconv.FormatInt(int64(id), 10))
}

// Event is one decoded scene mutation from the bus. Delete events only need
// the addressing fields of the marker; delete-all ignores the marker entirely.
type Event struct {
	Action Action
	Marker Marker
}
