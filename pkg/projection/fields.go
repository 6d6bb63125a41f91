package projection

// Resource kinds understood by the projection tables.
const (
	KindProject   = "project"
	KindUserStory = "user_story"
	KindTask      = "task"
	KindIssue     = "issue"
	KindEpic      = "epic"
	KindMilestone = "milestone"
	KindMember    = "member"
	KindWikiPage  = "wiki_page"
)

// allowedFields is the write allowlist per resource kind: optional fields a
// caller may pass on create/update. Anything else is stripped (or rejected in
// strict mode) before it reaches the API.
var allowedFields = map[string]map[string]struct{}{
	KindProject: set(
		"name", "is_private", "is_featured", "description", "tags",
		"total_story_points", "total_milestones", "is_looking_for_people",
		"looking_for_people_note", "is_epics_activated", "is_backlog_activated",
		"is_kanban_activated", "is_wiki_activated", "is_issues_activated",
		"videoconferences", "videoconferences_extra_data", "creation_template",
		"is_contact_activated",
	),
	KindUserStory: set(
		"subject", "description", "status", "is_closed", "points", "milestone",
		"tags", "assigned_to", "assigned_users", "watchers", "client_requirement",
		"team_requirement", "is_blocked", "blocked_note", "backlog_order",
		"sprint_order", "kanban_order", "due_date", "due_date_reason", "epics",
	),
	KindTask: set(
		"subject", "description", "status", "milestone", "user_story",
		"assigned_to", "watchers", "is_iocaine", "tags", "is_blocked",
		"blocked_note", "due_date", "due_date_reason", "taskboard_order",
	),
	KindIssue: set(
		"subject", "description", "status", "priority", "severity", "type",
		"milestone", "assigned_to", "watchers", "tags", "is_blocked",
		"blocked_note", "due_date", "due_date_reason",
	),
	KindEpic: set(
		"subject", "description", "status", "assigned_to", "watchers", "tags",
		"color", "client_requirement", "team_requirement", "epics_order",
	),
	KindMilestone: set(
		"name", "estimated_start", "estimated_finish", "disponibility", "slug",
		"order", "watchers",
	),
	KindWikiPage: set(
		"slug", "content",
	),
}

// responseFields defines the projection per verbosity level. A nil list means
// no filtering. "version" stays in every standard projection because update
// operations need it for optimistic concurrency.
var responseFields = map[string]map[Verbosity][]string{
	KindProject: {
		Minimal: {"id", "name", "slug"},
		Standard: {
			"id", "name", "slug", "description", "is_private", "tags",
			"created_date", "modified_date", "version",
		},
	},
	KindUserStory: {
		Minimal: {"id", "ref", "subject", "status", "project"},
		Standard: {
			"id", "ref", "subject", "description", "status", "status_extra_info",
			"assigned_to", "assigned_to_extra_info", "milestone", "project",
			"tags", "is_blocked", "is_closed", "due_date", "version",
		},
	},
	KindTask: {
		Minimal: {"id", "ref", "subject", "status", "project"},
		Standard: {
			"id", "ref", "subject", "description", "status", "status_extra_info",
			"assigned_to", "assigned_to_extra_info", "user_story", "milestone",
			"project", "tags", "is_blocked", "due_date", "version",
		},
	},
	KindIssue: {
		Minimal: {"id", "ref", "subject", "status", "priority", "severity", "project"},
		Standard: {
			"id", "ref", "subject", "description", "status", "status_extra_info",
			"priority", "priority_extra_info", "severity", "severity_extra_info",
			"type", "type_extra_info", "assigned_to", "assigned_to_extra_info",
			"milestone", "project", "tags", "is_blocked", "due_date", "version",
		},
	},
	KindEpic: {
		Minimal: {"id", "ref", "subject", "status", "project"},
		Standard: {
			"id", "ref", "subject", "description", "status", "status_extra_info",
			"assigned_to", "assigned_to_extra_info", "project", "tags", "color",
			"version",
		},
	},
	KindMilestone: {
		Minimal: {"id", "name", "slug", "project"},
		Standard: {
			"id", "name", "slug", "estimated_start", "estimated_finish",
			"closed", "project", "version",
		},
	},
	KindMember: {
		Minimal: {"id", "user", "full_name"},
		Standard: {
			"id", "user", "full_name", "email", "role", "role_name", "is_admin",
			"project",
		},
	},
	KindWikiPage: {
		Minimal:  {"id", "slug", "project"},
		Standard: {"id", "slug", "content", "project", "version"},
	},
}

func set(keys ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		m[k] = struct{}{}
	}
	return m
}
