package ports

import (
	"pisaresilience/domain/dataset"
)

// InputSource provides the raw per-country student, school and teacher tables
type InputSource interface {
	Load() (dataset.Input, error)
}
