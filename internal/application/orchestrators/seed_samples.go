package orchestrators

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"shotbuzz/internal/domain/attendance"
	"shotbuzz/internal/domain/project"
	"shotbuzz/internal/domain/shot"
)

// ShotStoreForSeed defines the store interface needed by SeedSamples.
type ShotStoreForSeed interface {
	Save(ctx context.Context, value shot.Shot) error
	ListAll(ctx context.Context) ([]shot.Shot, error)
}

// AttendanceStoreForSeed defines the store interface needed by SeedSamples.
type AttendanceStoreForSeed interface {
	Save(ctx context.Context, value attendance.Record) error
	ListAll(ctx context.Context) ([]attendance.Record, error)
}

// SeedSamplesDeps holds dependencies for SeedSamples.
type SeedSamplesDeps struct {
	ShotStore       ShotStoreForSeed
	AttendanceStore AttendanceStoreForSeed
	Projects        []project.Project
}

// SeedSamplesResult reports what was written.
type SeedSamplesResult struct {
	Shots      int
	Attendance int
}

// sampleTeam is the roster used for generated attendance.
var sampleTeam = []struct {
	name   string
	status attendance.Status
	in     string
	out    string
	notes  string
}{
	{"Aisha Khan", attendance.StatusPresent, "09:00", "17:30", "Paint fixes on **BETA_0040**"},
	{"Ben Okafor", attendance.StatusRemote, "10:15", "18:45", ""},
	{"Chloe Martin", attendance.StatusPresent, "08:45", "", "Still rendering"},
	{"Diego Alvarez", attendance.StatusAbsent, "", "", ""},
	{"Emma Lindqvist", attendance.StatusOnLeave, "", "", "Annual leave"},
	{"Farid Haddad", attendance.StatusPresent, "09:30", "18:00", ""},
}

// shotsPerProject is how many shots are generated for each seed project.
const shotsPerProject = 4

// ExecuteSeedSamples writes sample shots and attendance if the store has no shots yet.
// PRE: today is the date attendance should be generated around
// POST: Either nothing is written (store already seeded) or every sample row is saved
func ExecuteSeedSamples(ctx context.Context, deps SeedSamplesDeps, today time.Time) (SeedSamplesResult, error) {
	existing, err := deps.ShotStore.ListAll(ctx)
	if err != nil {
		return SeedSamplesResult{}, err
	}
	if len(existing) > 0 {
		return SeedSamplesResult{}, nil
	}

	var result SeedSamplesResult
	created := today.Add(-time.Duration(len(deps.Projects)*shotsPerProject) * time.Hour)
	for pi, p := range deps.Projects {
		for i := 1; i <= shotsPerProject; i++ {
			s := shot.New(uuid.New().String(), p.ClientName, p.Project,
				fmt.Sprintf("%s_%04d", p.Project, i*10), p.StatusRaw)
			s.Workload = (p.Workload + i*7) % 101
			s.AssignedTo = p.Assigned
			s.EstimatedID = p.EstimatedID
			s.PackageID = p.PackageID
			s.InDate = today.AddDate(0, 0, -14-pi).Format(shot.DateLayout)
			s.EtaDate = today.AddDate(0, 0, 3*i+pi).Format(shot.DateLayout)
			s.CreatedAt = created
			created = created.Add(time.Hour)
			if err := s.Validate(); err != nil {
				return result, err
			}
			if err := deps.ShotStore.Save(ctx, s); err != nil {
				return result, err
			}
			result.Shots++
		}
	}

	for day := 0; day < 3; day++ {
		date := today.AddDate(0, 0, -day).Format(attendance.DateLayout)
		for _, member := range sampleTeam {
			rec, err := sampleRecord(member.name, date, member.status, member.in, member.out, member.notes)
			if err != nil {
				return result, err
			}
			if err := deps.AttendanceStore.Save(ctx, rec); err != nil {
				return result, err
			}
			result.Attendance++
		}
	}

	slog.Info("seed_event", "event", "samples_seeded", "shots", result.Shots, "attendance", result.Attendance)
	return result, nil
}

func sampleRecord(name, date string, status attendance.Status, in, out, notes string) (attendance.Record, error) {
	checkIn, err := attendance.ParseClockTime(in)
	if err != nil {
		return attendance.Record{}, err
	}
	checkOut, err := attendance.ParseClockTime(out)
	if err != nil {
		return attendance.Record{}, err
	}
	rec := attendance.Record{
		ID:             uuid.New().String(),
		TeamMemberName: name,
		Date:           date,
		Status:         status,
		StatusRaw:      string(status),
		CheckIn:        checkIn,
		CheckOut:       checkOut,
		Notes:          notes,
	}
	return rec, rec.Validate()
}
