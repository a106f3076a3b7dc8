package api

import "github.com/google/uuid"

// MetaItem is one selectable metadata entry (age range, affiliation).
type MetaItem struct {
	ID          uuid.UUID `json:"id"`
	DisplayName string    `json:"display_name,omitempty"`
}

// Meta is the platform metadata fetched once per run.
type Meta struct {
	AgeRanges    []MetaItem `json:"age_ranges"`
	Affiliations []MetaItem `json:"affiliations"`
}

// AgeRangeIDs returns the ids of all age ranges.
func (m *Meta) AgeRangeIDs() []uuid.UUID {
	return itemIDs(m.AgeRanges)
}

// AffiliationIDs returns the ids of all affiliations.
func (m *Meta) AffiliationIDs() []uuid.UUID {
	return itemIDs(m.Affiliations)
}

func itemIDs(items []MetaItem) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ID)
	}
	return ids
}

// PlayerSettings are the player defaults attached to a new jig. The platform
// fills in its own defaults for an empty object.
type PlayerSettings struct{}

// CreateJigRequest is the body of POST /v1/jig.
type CreateJigRequest struct {
	DisplayName           string         `json:"display_name"`
	Language              string         `json:"language,omitempty"`
	Description           string         `json:"description"`
	AgeRanges             []uuid.UUID    `json:"age_ranges,omitempty"`
	Affiliations          []uuid.UUID    `json:"affiliations,omitempty"`
	DefaultPlayerSettings PlayerSettings `json:"default_player_settings"`
}

// Privacy levels accepted by the draft update endpoint.
const (
	PrivacyPublic   = "public"
	PrivacyUnlisted = "unlisted"
)

// UpdateDraftRequest is the body of PATCH /v1/jig/{id}. Nil fields are left
// untouched by the platform.
type UpdateDraftRequest struct {
	Privacy         *string `json:"privacy_level,omitempty"`
	AudioBackground *string `json:"audio_background,omitempty"`
}

// LegacyBody points a module at a translated slide in the bucket.
type LegacyBody struct {
	GameID  string `json:"game_id"`
	SlideID string `json:"slide_id"`
}

// ModuleBody is the tagged one-of wrapper the module endpoint expects.
type ModuleBody struct {
	Legacy *LegacyBody `json:"Legacy,omitempty"`
}

// CreateModuleRequest is the body of POST /v1/jig/{id}/module.
type CreateModuleRequest struct {
	ParentID uuid.UUID  `json:"parent_id"`
	Body     ModuleBody `json:"body"`
}

type createResponse struct {
	ID uuid.UUID `json:"id"`
}

// ModuleRef identifies one module of a live jig.
type ModuleRef struct {
	ID uuid.UUID `json:"id"`
}

// LiveJig is the slice of GET /v1/jig/{id}/live the pipeline consumes.
type LiveJig struct {
	ID      uuid.UUID `json:"id"`
	JigData struct {
		Modules []ModuleRef `json:"modules"`
	} `json:"jig_data"`
}
