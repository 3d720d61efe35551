package perms

// GroupID identifies a permission group.
type GroupID string

// GroupOther is the reserved catch-all group. It is always listed last.
const GroupOther GroupID = "other"

// Group is a named permission group.
type Group struct {
	ID    GroupID
	Label string
}

const (
	GroupCalendar   GroupID = "calendar"
	GroupCalls      GroupID = "calls"
	GroupCamera     GroupID = "camera"
	GroupContacts   GroupID = "contacts"
	GroupFiles      GroupID = "files"
	GroupLocation   GroupID = "location"
	GroupMessaging  GroupID = "messaging"
	GroupMicrophone GroupID = "microphone"
	GroupNetwork    GroupID = "network"
	GroupSensors    GroupID = "sensors"
	GroupApps       GroupID = "apps"
)

var groups = []Group{
	{GroupApps, "Apps"},
	{GroupCalendar, "Calendar"},
	{GroupCalls, "Calls"},
	{GroupCamera, "Camera"},
	{GroupContacts, "Contacts"},
	{GroupFiles, "Files"},
	{GroupLocation, "Location"},
	{GroupMessaging, "Messaging"},
	{GroupMicrophone, "Microphone"},
	{GroupNetwork, "Network"},
	{GroupSensors, "Sensors"},
}

var otherGroup = Group{GroupOther, "Other"}

// Groups returns the named groups, excluding the catch-all group.
func Groups() []Group {
	out := make([]Group, len(groups))
	copy(out, groups)
	return out
}

// AllGroupIDs returns every group id including GroupOther.
func AllGroupIDs() []GroupID {
	ids := make([]GroupID, 0, len(groups)+1)
	for _, g := range groups {
		ids = append(ids, g.ID)
	}
	return append(ids, GroupOther)
}

// LookupGroup returns the group with the given id, including GroupOther.
func LookupGroup(id GroupID) (Group, bool) {
	if id == GroupOther {
		return otherGroup, true
	}
	for _, g := range groups {
		if g.ID == id {
			return g, true
		}
	}
	return Group{}, false
}

// OtherGroup returns the catch-all group.
func OtherGroup() Group {
	return otherGroup
}

// groupForManifest maps Android manifest permission-group names onto the
// fixed groups.
var groupForManifest = map[string]GroupID{
	"android.permission-group.CALENDAR":             GroupCalendar,
	"android.permission-group.CALL_LOG":             GroupCalls,
	"android.permission-group.PHONE":                GroupCalls,
	"android.permission-group.CAMERA":               GroupCamera,
	"android.permission-group.CONTACTS":             GroupContacts,
	"android.permission-group.STORAGE":              GroupFiles,
	"android.permission-group.READ_MEDIA_AURAL":     GroupFiles,
	"android.permission-group.READ_MEDIA_VISUAL":    GroupFiles,
	"android.permission-group.LOCATION":             GroupLocation,
	"android.permission-group.SMS":                  GroupMessaging,
	"android.permission-group.MICROPHONE":           GroupMicrophone,
	"android.permission-group.NEARBY_DEVICES":       GroupNetwork,
	"android.permission-group.SENSORS":              GroupSensors,
	"android.permission-group.ACTIVITY_RECOGNITION": GroupSensors,
}
