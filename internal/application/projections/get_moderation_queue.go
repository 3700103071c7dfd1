package projections

import (
	"context"

	courseStore "formations/internal/adapters/storage/course"
	"formations/internal/application/listutil"
	"formations/internal/domain/course"
	"formations/internal/domain/moderation"
)

// ModerationQueueQuery carries query parameters.
type ModerationQueueQuery struct {
	Status moderation.Status // empty lists every status
	Page   listutil.PageParams
}

// ModerationItem is one course row of the admin queue.
type ModerationItem struct {
	Course    course.Course
	OwnerName string // empty for an independent course
}

// ModerationQueue carries the query result.
type ModerationQueue struct {
	Items  []ModerationItem
	Status moderation.Status
	Page   listutil.PageInfo
}

// ModerationQueueDeps holds dependencies for QueryModerationQueue.
type ModerationQueueDeps struct {
	CourseStore  CourseStore
	ProfileStore ProfileStore
}

// QueryModerationQueue pages through courses by status, newest first.
// PRE: Status is empty or valid
// POST: Items hold at most Page.PerPage rows
func QueryModerationQueue(ctx context.Context, query ModerationQueueQuery, deps ModerationQueueDeps) (ModerationQueue, error) {
	filter := courseStore.ListFilter{Status: query.Status}
	total, err := deps.CourseStore.Count(ctx, filter)
	if err != nil {
		return ModerationQueue{}, err
	}
	page := listutil.NewPageInfo(query.Page, total)

	filter.Limit = page.PerPage
	filter.Offset = page.Offset()
	courses, err := deps.CourseStore.List(ctx, filter)
	if err != nil {
		return ModerationQueue{}, err
	}

	names := make(map[string]string)
	items := make([]ModerationItem, 0, len(courses))
	for _, c := range courses {
		ownerID := c.TrainerID
		if ownerID == "" {
			ownerID = c.OrganizationID
		}
		item := ModerationItem{Course: c}
		if ownerID != "" {
			name, ok := names[ownerID]
			if !ok {
				p, err := optionalProfile(ctx, deps.ProfileStore, ownerID)
				if err != nil {
					return ModerationQueue{}, err
				}
				if p != nil {
					name = p.Name
				}
				names[ownerID] = name
			}
			item.OwnerName = name
		}
		items = append(items, item)
	}

	return ModerationQueue{Items: items, Status: query.Status, Page: page}, nil
}
