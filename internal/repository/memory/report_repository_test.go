package memory

import (
	"testing"

	"github.com/mohamad1-9-9-7/inspection-react-full/backend-go/internal/repository"
	"github.com/mohamad1-9-9-7/inspection-react-full/backend-go/internal/repository/repotest"
)

func TestReportRepository(t *testing.T) {
	repotest.Run(t, func(t *testing.T) repository.ReportRepository {
		return NewReportRepository()
	})
}
