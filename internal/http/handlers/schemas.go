package handlers

import (
	"github.com/tbourn/go-lifetrack-backend/internal/domain"
	"github.com/tbourn/go-lifetrack-backend/internal/services"
	v "github.com/tbourn/go-lifetrack-backend/internal/validation"
)

// Field limits shared by the schemas below.
const (
	areaNameMax     = 100
	areaIconMax     = 32
	sortOrderMax    = 10000
	goalTitleMax    = 200
	goalDescMax     = 2000
	goalUnitMax     = 32
	progressNoteMax = 500

	defaultAreaColor = "#6b7280"
)

func idParam() *v.ObjectSchema {
	return v.Params(v.Field("id", v.String().Required().Trim().Lowercase().UUID()))
}

func pageFields() []v.FieldSpec {
	return []v.FieldSpec{
		v.Field("page", v.Int().Min(1).Default(1)),
		v.Field("page_size", v.Int().Min(1).Max(services.MaxPageSize).Default(services.DefaultPageSize)),
	}
}

func goalStatus() *v.StringSchema {
	return v.String().Trim().Lowercase().OneOf(domain.GoalStatuses...)
}

// Route schemas. Each request facet is checked by middleware.ValidateRequest
// before the handler runs.
var (
	ListAreasRequest = v.Request{Query: v.Object()}

	CreateAreaRequest = v.Request{Body: v.Object(
		v.Field("name", v.String().Required().Trim().Max(areaNameMax)),
		v.Field("color", v.String().Trim().Lowercase().HexColor().Default(defaultAreaColor)),
		v.Field("icon", v.String().Trim().AllowEmpty().Max(areaIconMax)),
		v.Field("sort_order", v.Int().Min(0).Max(sortOrderMax).Default(0)),
	).Required()}

	GetAreaRequest = v.Request{Params: idParam()}

	UpdateAreaRequest = v.Request{
		Body: v.Object(
			v.Field("name", v.String().Trim().Max(areaNameMax)),
			v.Field("color", v.String().Trim().Lowercase().HexColor()),
			v.Field("icon", v.String().Trim().AllowEmpty().Max(areaIconMax)),
			v.Field("sort_order", v.Int().Min(0).Max(sortOrderMax)),
		).Required(),
		Params: idParam(),
	}

	DeleteAreaRequest = v.Request{Params: idParam()}

	ListGoalsRequest = v.Request{Query: v.Object(append(pageFields(),
		v.Field("status", goalStatus()),
		v.Field("area_id", v.String().Trim().Lowercase().UUID()),
	)...)}

	CreateGoalRequest = v.Request{Body: v.Object(
		v.Field("area_id", v.String().Required().Trim().Lowercase().UUID()),
		v.Field("title", v.String().Required().Trim().Max(goalTitleMax)),
		v.Field("description", v.String().Trim().AllowEmpty().Max(goalDescMax)),
		v.Field("status", goalStatus().Default(domain.GoalStatusActive)),
		v.Field("priority", v.Int().Min(domain.MinPriority).Max(domain.MaxPriority).Default(3)),
		v.Field("target_value", v.Number().Required().Positive()),
		v.Field("current_value", v.Number().Min(0).Default(0)),
		v.Field("unit", v.String().Trim().AllowEmpty().Max(goalUnitMax)),
		v.Field("due_date", v.Date().Nullable()),
	).Required()}

	GetGoalRequest = v.Request{Params: idParam()}

	UpdateGoalRequest = v.Request{
		Body: v.Object(
			v.Field("area_id", v.String().Trim().Lowercase().UUID()),
			v.Field("title", v.String().Trim().Max(goalTitleMax)),
			v.Field("description", v.String().Trim().AllowEmpty().Max(goalDescMax)),
			v.Field("status", goalStatus()),
			v.Field("priority", v.Int().Min(domain.MinPriority).Max(domain.MaxPriority)),
			v.Field("target_value", v.Number().Positive()),
			v.Field("current_value", v.Number().Min(0)),
			v.Field("unit", v.String().Trim().AllowEmpty().Max(goalUnitMax)),
			v.Field("due_date", v.Date().Nullable()),
		).Required(),
		Params: idParam(),
	}

	DeleteGoalRequest = v.Request{Params: idParam()}

	LogProgressRequest = v.Request{
		Body: v.Object(
			v.Field("value", v.Number().Required()),
			v.Field("note", v.String().Trim().AllowEmpty().Max(progressNoteMax)),
			v.Field("recorded_at", v.Date().Nullable()),
		).Required(),
		Params: idParam(),
	}

	ListProgressRequest = v.Request{
		Query:  v.Object(pageFields()...),
		Params: idParam(),
	}
)
