package perms

// Known is a well-known permission definition shipped with permscope.
type Known struct {
	ID     ID
	Label  string
	Tags   Tags
	Groups []GroupID
}

const android = "android.permission."

var knownPermissions = []Known{
	{ID: android + "ACCESS_BACKGROUND_LOCATION", Label: "Background location", Tags: NewTags(RuntimeGrant, Highlighted, ManifestDoc), Groups: []GroupID{GroupLocation}},
	{ID: android + "ACCESS_COARSE_LOCATION", Label: "Approximate location", Tags: NewTags(RuntimeGrant, ManifestDoc), Groups: []GroupID{GroupLocation}},
	{ID: android + "ACCESS_FINE_LOCATION", Label: "Precise location", Tags: NewTags(RuntimeGrant, ManifestDoc), Groups: []GroupID{GroupLocation}},
	{ID: android + "ACCESS_NETWORK_STATE", Label: "View network connections", Tags: NewTags(InstallTimeGrant, ManifestDoc), Groups: []GroupID{GroupNetwork}},
	{ID: android + "ACCESS_WIFI_STATE", Label: "View Wi-Fi connections", Tags: NewTags(InstallTimeGrant, ManifestDoc), Groups: []GroupID{GroupNetwork}},
	{ID: android + "ACTIVITY_RECOGNITION", Label: "Physical activity", Tags: NewTags(RuntimeGrant, ManifestDoc), Groups: []GroupID{GroupSensors}},
	{ID: android + "BIND_ACCESSIBILITY_SERVICE", Label: "Accessibility service", Tags: NewTags(SpecialAccess, Highlighted, ManifestDoc), Groups: []GroupID{GroupApps}},
	{ID: android + "BLUETOOTH_CONNECT", Label: "Connect to paired Bluetooth devices", Tags: NewTags(RuntimeGrant, ManifestDoc), Groups: []GroupID{GroupNetwork}},
	{ID: android + "BLUETOOTH_SCAN", Label: "Find nearby Bluetooth devices", Tags: NewTags(RuntimeGrant, ManifestDoc), Groups: []GroupID{GroupNetwork, GroupLocation}},
	{ID: android + "BODY_SENSORS", Label: "Body sensors", Tags: NewTags(RuntimeGrant, ManifestDoc), Groups: []GroupID{GroupSensors}},
	{ID: android + "CALL_PHONE", Label: "Directly call phone numbers", Tags: NewTags(RuntimeGrant, ManifestDoc), Groups: []GroupID{GroupCalls}},
	{ID: android + "CAMERA", Label: "Camera", Tags: NewTags(RuntimeGrant, ManifestDoc), Groups: []GroupID{GroupCamera}},
	{ID: android + "FOREGROUND_SERVICE", Label: "Run foreground service", Tags: NewTags(InstallTimeGrant, ManifestDoc), Groups: []GroupID{GroupApps}},
	{ID: android + "GET_ACCOUNTS", Label: "Find accounts on the device", Tags: NewTags(RuntimeGrant, ManifestDoc), Groups: []GroupID{GroupContacts}},
	{ID: android + "INTERNET", Label: "Full network access", Tags: NewTags(InstallTimeGrant, Highlighted, ManifestDoc), Groups: []GroupID{GroupNetwork}},
	{ID: android + "MANAGE_EXTERNAL_STORAGE", Label: "All files access", Tags: NewTags(SpecialAccess, Highlighted, ManifestDoc), Groups: []GroupID{GroupFiles}},
	{ID: android + "NEARBY_WIFI_DEVICES", Label: "Nearby Wi-Fi devices", Tags: NewTags(RuntimeGrant, ManifestDoc), Groups: []GroupID{GroupNetwork}},
	{ID: android + "PACKAGE_USAGE_STATS", Label: "Usage access", Tags: NewTags(SpecialAccess, ManifestDoc), Groups: []GroupID{GroupApps}},
	{ID: android + "POST_NOTIFICATIONS", Label: "Show notifications", Tags: NewTags(RuntimeGrant, ManifestDoc), Groups: []GroupID{GroupApps}},
	{ID: android + "QUERY_ALL_PACKAGES", Label: "Query all packages", Tags: NewTags(InstallTimeGrant, Highlighted, ManifestDoc), Groups: []GroupID{GroupApps}},
	{ID: android + "READ_CALENDAR", Label: "Read calendar events", Tags: NewTags(RuntimeGrant, ManifestDoc), Groups: []GroupID{GroupCalendar}},
	{ID: android + "READ_CALL_LOG", Label: "Read call log", Tags: NewTags(RuntimeGrant, ManifestDoc), Groups: []GroupID{GroupCalls}},
	{ID: android + "READ_CONTACTS", Label: "Read contacts", Tags: NewTags(RuntimeGrant, ManifestDoc), Groups: []GroupID{GroupContacts}},
	{ID: android + "READ_EXTERNAL_STORAGE", Label: "Read shared storage", Tags: NewTags(RuntimeGrant, ManifestDoc), Groups: []GroupID{GroupFiles}},
	{ID: android + "READ_MEDIA_AUDIO", Label: "Read audio files", Tags: NewTags(RuntimeGrant, ManifestDoc), Groups: []GroupID{GroupFiles}},
	{ID: android + "READ_MEDIA_IMAGES", Label: "Read images", Tags: NewTags(RuntimeGrant, ManifestDoc), Groups: []GroupID{GroupFiles}},
	{ID: android + "READ_MEDIA_VIDEO", Label: "Read videos", Tags: NewTags(RuntimeGrant, ManifestDoc), Groups: []GroupID{GroupFiles}},
	{ID: android + "READ_PHONE_STATE", Label: "Read phone status and identity", Tags: NewTags(RuntimeGrant, ManifestDoc), Groups: []GroupID{GroupCalls}},
	{ID: android + "READ_SMS", Label: "Read text messages", Tags: NewTags(RuntimeGrant, ManifestDoc), Groups: []GroupID{GroupMessaging}},
	{ID: android + "RECEIVE_BOOT_COMPLETED", Label: "Run at startup", Tags: NewTags(InstallTimeGrant, ManifestDoc), Groups: []GroupID{GroupApps}},
	{ID: android + "RECEIVE_SMS", Label: "Receive text messages", Tags: NewTags(RuntimeGrant, ManifestDoc), Groups: []GroupID{GroupMessaging}},
	{ID: android + "RECORD_AUDIO", Label: "Record audio", Tags: NewTags(RuntimeGrant, ManifestDoc), Groups: []GroupID{GroupMicrophone}},
	{ID: android + "REQUEST_INSTALL_PACKAGES", Label: "Install unknown apps", Tags: NewTags(SpecialAccess, Highlighted, ManifestDoc), Groups: []GroupID{GroupApps}},
	{ID: android + "SEND_SMS", Label: "Send text messages", Tags: NewTags(RuntimeGrant, ManifestDoc), Groups: []GroupID{GroupMessaging}},
	{ID: android + "SYSTEM_ALERT_WINDOW", Label: "Display over other apps", Tags: NewTags(SpecialAccess, Highlighted, ManifestDoc), Groups: []GroupID{GroupApps}},
	{ID: android + "USE_BIOMETRIC", Label: "Use biometric hardware", Tags: NewTags(InstallTimeGrant, ManifestDoc), Groups: []GroupID{GroupSensors}},
	{ID: android + "VIBRATE", Label: "Control vibration", Tags: NewTags(InstallTimeGrant, ManifestDoc), Groups: []GroupID{GroupApps}},
	{ID: android + "WAKE_LOCK", Label: "Prevent device from sleeping", Tags: NewTags(InstallTimeGrant, ManifestDoc), Groups: []GroupID{GroupApps}},
	{ID: android + "WRITE_CALENDAR", Label: "Add or modify calendar events", Tags: NewTags(RuntimeGrant, ManifestDoc), Groups: []GroupID{GroupCalendar}},
	{ID: android + "WRITE_CONTACTS", Label: "Modify contacts", Tags: NewTags(RuntimeGrant, ManifestDoc), Groups: []GroupID{GroupContacts}},
	{ID: android + "WRITE_EXTERNAL_STORAGE", Label: "Modify shared storage", Tags: NewTags(RuntimeGrant, ManifestDoc), Groups: []GroupID{GroupFiles}},
	{ID: android + "WRITE_SETTINGS", Label: "Modify system settings", Tags: NewTags(SpecialAccess, ManifestDoc), Groups: []GroupID{GroupApps}},
}

// KnownPermissions returns the built-in table of well-known permissions.
func KnownPermissions() []Known {
	out := make([]Known, len(knownPermissions))
	copy(out, knownPermissions)
	return out
}
