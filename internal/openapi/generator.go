package openapi

import (
	"github.com/getkin/kin-openapi/openapi3"

	"github.com/akhndelwal86/goodreads-for-puzzles-sub003/internal/model"
)

// Options parameterize the generated document.
type Options struct {
	BaseURL    string
	Prefix     string // admin route prefix, e.g. "/admin"
	CookieName string
	Version    string
}

const securityScheme = "adminSession"

// GenerateAdminSpec builds the OpenAPI 3.1 document for the admin API.
func GenerateAdminSpec(opts Options) *openapi3.T {
	if opts.Prefix == "" {
		opts.Prefix = "/admin"
	}
	if opts.Version == "" {
		opts.Version = "1.0.0"
	}

	doc := &openapi3.T{
		OpenAPI: "3.1.0",
		Info: &openapi3.Info{
			Title:       "Puzzlr Admin API",
			Description: "Session-authenticated API behind the Puzzlr admin panel.",
			Version:     opts.Version,
		},
	}
	if opts.BaseURL != "" {
		doc.Servers = openapi3.Servers{{URL: opts.BaseURL}}
	}

	components := openapi3.NewComponents()
	components.Schemas = componentSchemas()
	components.SecuritySchemes = openapi3.SecuritySchemes{
		securityScheme: &openapi3.SecuritySchemeRef{
			Value: &openapi3.SecurityScheme{
				Type:        "apiKey",
				In:          "cookie",
				Name:        opts.CookieName,
				Description: "Opaque session token set by the login endpoint.",
			},
		},
	}
	doc.Components = &components
	doc.Security = openapi3.SecurityRequirements{{securityScheme: {}}}
	doc.Paths = openapi3.NewPaths()

	addAuthPaths(doc, opts.Prefix)
	addDashboardPaths(doc, opts.Prefix)
	addModerationPaths(doc, opts.Prefix)
	return doc
}

func componentSchemas() openapi3.Schemas {
	return openapi3.Schemas{
		"ErrorResponse": objectSchema(field{Name: "error", Type: "ref:ErrorDetail", Required: true}),
		"ErrorDetail": objectSchema(
			field{Name: "code", Type: "int", Required: true},
			field{Name: "message", Type: "string", Required: true},
			field{Name: "context", Type: "object"},
		),
		"LoginRequest": objectSchema(
			field{Name: "username", Type: "string", Required: true},
			field{Name: "password", Type: "string", Required: true},
		),
		"LoginResponse": objectSchema(
			field{Name: "success", Type: "bool", Required: true},
			field{Name: "expiresAt", Type: "date-time", Required: true},
		),
		"SuccessResponse": objectSchema(field{Name: "success", Type: "bool", Required: true}),
		"SessionSummary": objectSchema(
			field{Name: "adminUsername", Type: "string"},
			field{Name: "expiresAt", Type: "date-time"},
			field{Name: "lastAccessedAt", Type: "date-time"},
		),
		"ValidateResponse": objectSchema(
			field{Name: "valid", Type: "bool", Required: true},
			field{Name: "session", Type: "ref:SessionSummary"},
			field{Name: "error", Type: "string"},
		),
		"AdminSession": objectSchema(
			field{Name: "id", Type: "uuid"},
			field{Name: "adminUsername", Type: "string"},
			field{Name: "createdAt", Type: "date-time"},
			field{Name: "expiresAt", Type: "date-time"},
			field{Name: "lastAccessedAt", Type: "date-time"},
			field{Name: "ipAddress", Type: "string"},
			field{Name: "userAgent", Type: "string"},
		),
		"ActivityEntry": objectSchema(
			field{Name: "id", Type: "uuid"},
			field{Name: "sessionId", Type: "string"},
			field{Name: "adminUsername", Type: "string"},
			field{Name: "action", Type: "string", Enum: enumOf(
				model.ActionLogin, model.ActionLogout, model.ActionApprovePuzzle,
				model.ActionRejectPuzzle, model.ActionUpdateFeedback, model.ActionPurgeSessions)},
			field{Name: "targetType", Type: "string", Enum: enumOf(
				model.TargetSession, model.TargetPuzzle, model.TargetFeedback)},
			field{Name: "targetId", Type: "string"},
			field{Name: "metadata", Type: "object"},
			field{Name: "occurredAt", Type: "date-time"},
		),
		"DashboardStats": objectSchema(
			field{Name: "pendingPuzzles", Type: "int64"},
			field{Name: "approvedPuzzles", Type: "int64"},
			field{Name: "rejectedPuzzles", Type: "int64"},
			field{Name: "totalUsers", Type: "int64"},
			field{Name: "newUsersThisWeek", Type: "int64"},
			field{Name: "totalCompletions", Type: "int64"},
			field{Name: "openFeedback", Type: "int64"},
			field{Name: "activeAdminSessions", Type: "int64"},
			field{Name: "generatedAt", Type: "date-time"},
		),
		"Puzzle": objectSchema(
			field{Name: "id", Type: "uuid"},
			field{Name: "title", Type: "string"},
			field{Name: "brand", Type: "string"},
			field{Name: "pieceCount", Type: "int"},
			field{Name: "status", Type: "string", Enum: enumOf(model.PuzzlePending, model.PuzzleApproved, model.PuzzleRejected)},
			field{Name: "submittedBy", Type: "string"},
			field{Name: "submittedAt", Type: "date-time"},
			field{Name: "reviewedBy", Type: "string"},
			field{Name: "reviewedAt", Type: "date-time"},
			field{Name: "rejectionReason", Type: "string"},
		),
		"Feedback": objectSchema(
			field{Name: "id", Type: "uuid"},
			field{Name: "userId", Type: "string"},
			field{Name: "message", Type: "string"},
			field{Name: "status", Type: "string", Enum: enumOf(model.FeedbackNew, model.FeedbackReviewed, model.FeedbackResolved)},
			field{Name: "createdAt", Type: "date-time"},
			field{Name: "updatedAt", Type: "date-time"},
		),
		"RejectRequest":  objectSchema(field{Name: "reason", Type: "string", Required: true}),
		"FeedbackUpdate": objectSchema(field{Name: "status", Type: "string", Required: true, Enum: enumOf(model.FeedbackNew, model.FeedbackReviewed, model.FeedbackResolved)}),
		"PurgeResponse":  objectSchema(field{Name: "purged", Type: "int64"}),
	}
}

func addAuthPaths(doc *openapi3.T, prefix string) {
	login := operation("auth", "adminLogin", "Sign in and receive the session cookie",
		newResponses("200", "Signed in; the session cookie is set", openapi3.NewSchemaRef(componentRef("LoginResponse"), nil), "400", "401", "429", "500"))
	login.RequestBody = jsonBody("Admin credentials", "LoginRequest")
	login.Security = &openapi3.SecurityRequirements{}
	doc.Paths.Set(prefix+"/auth/login", &openapi3.PathItem{Post: login})

	doc.Paths.Set(prefix+"/auth/logout", &openapi3.PathItem{
		Post: operation("auth", "adminLogout", "Revoke the current session and clear the cookie",
			newResponses("200", "Signed out", openapi3.NewSchemaRef(componentRef("SuccessResponse"), nil), "401", "500")),
	})

	validate := operation("auth", "adminValidate", "Report whether the session cookie is valid",
		newResponses("200", "The session is valid", openapi3.NewSchemaRef(componentRef("ValidateResponse"), nil), "500"))
	invalid := "The session is missing, unknown or expired; the cookie is cleared"
	validate.Responses.Set("401", &openapi3.ResponseRef{Value: &openapi3.Response{
		Description: &invalid,
		Content:     openapi3.NewContentWithJSONSchemaRef(openapi3.NewSchemaRef(componentRef("ValidateResponse"), nil)),
	}})
	doc.Paths.Set(prefix+"/auth/validate", &openapi3.PathItem{Get: validate})
}

func addDashboardPaths(doc *openapi3.T, prefix string) {
	activity := operation("dashboard", "adminActivity", "List recent admin activity, newest first",
		newResponses("200", "Activity entries", arrayOf("ActivityEntry"), "401", "500"))
	activity.Parameters = openapi3.Parameters{limitParameter("Maximum entries to return (default 50, capped at 500).")}
	doc.Paths.Set(prefix+"/activity", &openapi3.PathItem{Get: activity})

	doc.Paths.Set(prefix+"/stats", &openapi3.PathItem{
		Get: operation("dashboard", "adminStats", "Dashboard counts",
			newResponses("200", "Dashboard counts", openapi3.NewSchemaRef(componentRef("DashboardStats"), nil), "401", "500")),
	})

	doc.Paths.Set(prefix+"/sessions", &openapi3.PathItem{
		Get: operation("sessions", "adminSessions", "List the caller's live sessions",
			newResponses("200", "Live sessions", listSchema("AdminSession"), "401", "500")),
	})
	doc.Paths.Set(prefix+"/sessions/purge", &openapi3.PathItem{
		Post: operation("sessions", "adminPurgeSessions", "Delete every expired session",
			newResponses("200", "Number of sessions removed", openapi3.NewSchemaRef(componentRef("PurgeResponse"), nil), "401", "500")),
	})
}

func addModerationPaths(doc *openapi3.T, prefix string) {
	list := operation("moderation", "listPuzzles", "List submitted puzzles",
		newResponses("200", "Puzzles", listSchema("Puzzle"), "400", "401", "500"))
	list.Parameters = openapi3.Parameters{
		statusParameter("Puzzle status filter; defaults to pending.", "pending", "approved", "rejected", "all"),
		limitParameter("Maximum puzzles to return."),
	}
	doc.Paths.Set(prefix+"/puzzles", &openapi3.PathItem{Get: list})

	approve := operation("moderation", "approvePuzzle", "Approve a pending puzzle",
		newResponses("200", "The approved puzzle", openapi3.NewSchemaRef(componentRef("Puzzle"), nil), "401", "404", "409", "500"))
	approve.Parameters = openapi3.Parameters{idParameter()}
	doc.Paths.Set(prefix+"/puzzles/{id}/approve", &openapi3.PathItem{Post: approve})

	reject := operation("moderation", "rejectPuzzle", "Reject a pending puzzle",
		newResponses("200", "The rejected puzzle", openapi3.NewSchemaRef(componentRef("Puzzle"), nil), "400", "401", "404", "409", "500"))
	reject.Parameters = openapi3.Parameters{idParameter()}
	reject.RequestBody = jsonBody("Rejection reason", "RejectRequest")
	doc.Paths.Set(prefix+"/puzzles/{id}/reject", &openapi3.PathItem{Post: reject})

	feedback := operation("moderation", "listFeedback", "List user feedback",
		newResponses("200", "Feedback", listSchema("Feedback"), "400", "401", "500"))
	feedback.Parameters = openapi3.Parameters{
		statusParameter("Feedback status filter; all statuses when omitted.", "new", "reviewed", "resolved"),
		limitParameter("Maximum items to return."),
	}
	doc.Paths.Set(prefix+"/feedback", &openapi3.PathItem{Get: feedback})

	update := operation("moderation", "updateFeedback", "Change the status of a feedback message",
		newResponses("200", "The updated feedback", openapi3.NewSchemaRef(componentRef("Feedback"), nil), "400", "401", "404", "500"))
	update.Parameters = openapi3.Parameters{idParameter()}
	update.RequestBody = jsonBody("New status", "FeedbackUpdate")
	doc.Paths.Set(prefix+"/feedback/{id}", &openapi3.PathItem{Patch: update})
}

func operation(tag, id, summary string, responses *openapi3.Responses) *openapi3.Operation {
	return &openapi3.Operation{
		Tags:        []string{tag},
		Summary:     summary,
		OperationID: id,
		Responses:   responses,
	}
}

func jsonBody(desc, component string) *openapi3.RequestBodyRef {
	return &openapi3.RequestBodyRef{
		Value: &openapi3.RequestBody{
			Description: desc,
			Required:    true,
			Content:     openapi3.NewContentWithJSONSchemaRef(openapi3.NewSchemaRef(componentRef(component), nil)),
		},
	}
}

func listSchema(component string) *openapi3.SchemaRef {
	return &openapi3.SchemaRef{
		Value: &openapi3.Schema{
			Type: &openapi3.Types{"object"},
			Properties: openapi3.Schemas{
				"resource": arrayOf(component),
				"meta":     metaSchema(),
			},
		},
	}
}

func limitParameter(desc string) *openapi3.ParameterRef {
	return &openapi3.ParameterRef{Value: &openapi3.Parameter{
		Name:        "limit",
		In:          "query",
		Description: desc,
		Schema:      &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"integer"}, Format: "int32"}},
	}}
}

func statusParameter(desc string, values ...string) *openapi3.ParameterRef {
	enum := make([]any, len(values))
	for i, v := range values {
		enum[i] = v
	}
	return &openapi3.ParameterRef{Value: &openapi3.Parameter{
		Name:        "status",
		In:          "query",
		Description: desc,
		Schema:      &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"string"}, Enum: enum}},
	}}
}

func idParameter() *openapi3.ParameterRef {
	return &openapi3.ParameterRef{Value: &openapi3.Parameter{
		Name:     "id",
		In:       "path",
		Required: true,
		Schema:   &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"string"}}},
	}}
}

var errorDescriptions = map[string]string{
	"400": "Bad request",
	"401": "Unauthorized",
	"404": "Not found",
	"409": "Conflict",
	"429": "Too many requests",
	"500": "Internal server error",
}

// newResponses builds a response set with one success response and the
// listed error statuses, all of which share the ErrorResponse envelope.
func newResponses(statusCode, description string, schema *openapi3.SchemaRef, errorCodes ...string) *openapi3.Responses {
	responses := openapi3.NewResponses()

	successDesc := description
	responses.Set(statusCode, &openapi3.ResponseRef{
		Value: &openapi3.Response{
			Description: &successDesc,
			Content:     openapi3.NewContentWithJSONSchemaRef(schema),
		},
	})

	errorRef := openapi3.NewSchemaRef(componentRef("ErrorResponse"), nil)
	for _, code := range errorCodes {
		desc := errorDescriptions[code]
		responses.Set(code, &openapi3.ResponseRef{
			Value: &openapi3.Response{
				Description: &desc,
				Content:     openapi3.NewContentWithJSONSchemaRef(errorRef),
			},
		})
	}
	return responses
}

func metaSchema() *openapi3.SchemaRef {
	return &openapi3.SchemaRef{
		Value: &openapi3.Schema{
			Type: &openapi3.Types{"object"},
			Properties: openapi3.Schemas{
				"count": &openapi3.SchemaRef{
					Value: &openapi3.Schema{
						Type:        &openapi3.Types{"integer"},
						Format:      "int64",
						Description: "Number of records returned.",
					},
				},
				"limit": &openapi3.SchemaRef{
					Value: &openapi3.Schema{
						Type:        &openapi3.Types{"integer"},
						Format:      "int32",
						Description: "Limit applied after defaults and caps.",
					},
				},
			},
		},
	}
}
