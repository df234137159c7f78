package projections

import (
	domainProject "shotbuzz/internal/domain/project"
)

// ProjectSource supplies the dashboard's project list.
type ProjectSource interface {
	Projects() []domainProject.Project
}
