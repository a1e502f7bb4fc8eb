package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/Dosada05/competition-system/live"
	"github.com/Dosada05/competition-system/models"
	"github.com/Dosada05/competition-system/repositories"
	"github.com/Dosada05/competition-system/storage"
)

// store - общее in-memory хранилище для фейковых репозиториев.
type store struct {
	mu          sync.Mutex
	nextID      int
	stages      map[int]*models.Stage
	teams       map[int]*models.Team
	members     map[int][]models.TeamMember
	users       map[int]*models.User
	progress    map[int]*models.ProgressEntry
	assignments map[int]*models.Assignment
	submissions map[int]*models.Submission
	materials   map[int]*models.CourseMaterial

	failNext error

	gradeCalls  int
	failGradeAt int
}

func newStore() *store {
	return &store{
		stages:      map[int]*models.Stage{},
		teams:       map[int]*models.Team{},
		members:     map[int][]models.TeamMember{},
		users:       map[int]*models.User{},
		progress:    map[int]*models.ProgressEntry{},
		assignments: map[int]*models.Assignment{},
		submissions: map[int]*models.Submission{},
		materials:   map[int]*models.CourseMaterial{},
	}
}

func (s *store) id() int {
	s.nextID++
	return s.nextID
}

// takeFailure returns and clears an injected storage error.
func (s *store) takeFailure() error {
	err := s.failNext
	s.failNext = nil
	return err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func fixedClock(t time.Time) Clock {
	return func() time.Time { return t }
}

// --- tx ---

// fakeTx snapshots progress and submissions and restores them when fn fails.
type fakeTx struct{ s *store }

func (f fakeTx) WithinTx(ctx context.Context, fn func(exec repositories.SQLExecutor) error) error {
	f.s.mu.Lock()
	progress := make(map[int]models.ProgressEntry, len(f.s.progress))
	for id, p := range f.s.progress {
		progress[id] = *p
	}
	subs := make(map[int]models.Submission, len(f.s.submissions))
	for id, sub := range f.s.submissions {
		subs[id] = *sub
	}
	f.s.mu.Unlock()

	if err := fn(nil); err != nil {
		f.s.mu.Lock()
		f.s.progress = map[int]*models.ProgressEntry{}
		for id, p := range progress {
			p := p
			f.s.progress[id] = &p
		}
		f.s.submissions = map[int]*models.Submission{}
		for id, sub := range subs {
			sub := sub
			f.s.submissions[id] = &sub
		}
		f.s.mu.Unlock()
		return err
	}
	return nil
}

// --- stages ---

type fakeStageRepo struct{ s *store }

func (r fakeStageRepo) Create(ctx context.Context, st *models.Stage) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, other := range r.s.stages {
		if other.Slug == st.Slug {
			return repositories.ErrStageSlugConflict
		}
		if other.Sequence == st.Sequence {
			return repositories.ErrStageSequenceConflict
		}
	}
	st.ID = r.s.id()
	cp := *st
	r.s.stages[st.ID] = &cp
	return nil
}

func (r fakeStageRepo) GetByID(ctx context.Context, id int) (*models.Stage, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.takeFailure(); err != nil {
		return nil, err
	}
	st, ok := r.s.stages[id]
	if !ok {
		return nil, repositories.ErrStageNotFound
	}
	cp := *st
	return &cp, nil
}

func (r fakeStageRepo) GetBySlug(ctx context.Context, slug string) (*models.Stage, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, st := range r.s.stages {
		if st.Slug == slug {
			cp := *st
			return &cp, nil
		}
	}
	return nil, repositories.ErrStageNotFound
}

func (r fakeStageRepo) GetBySequence(ctx context.Context, exec repositories.SQLExecutor, seq int) (*models.Stage, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, st := range r.s.stages {
		if st.Sequence == seq {
			cp := *st
			return &cp, nil
		}
	}
	return nil, repositories.ErrStageNotFound
}

func (r fakeStageRepo) GetFirst(ctx context.Context, exec repositories.SQLExecutor) (*models.Stage, error) {
	stages, _ := r.List(ctx)
	if len(stages) == 0 {
		return nil, repositories.ErrStageNotFound
	}
	return &stages[0], nil
}

func (r fakeStageRepo) List(ctx context.Context) ([]models.Stage, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]models.Stage, 0, len(r.s.stages))
	for _, st := range r.s.stages {
		out = append(out, *st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Sequence < out[j].Sequence })
	return out, nil
}

func (r fakeStageRepo) Update(ctx context.Context, st *models.Stage) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.stages[st.ID]; !ok {
		return repositories.ErrStageNotFound
	}
	for id, other := range r.s.stages {
		if id != st.ID && other.Slug == st.Slug {
			return repositories.ErrStageSlugConflict
		}
	}
	cp := *st
	r.s.stages[st.ID] = &cp
	return nil
}

func (r fakeStageRepo) HasProgress(ctx context.Context, stageID int) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, p := range r.s.progress {
		if p.StageID == stageID {
			return true, nil
		}
	}
	return false, nil
}

// --- teams ---

type fakeTeamRepo struct{ s *store }

func (r fakeTeamRepo) Create(ctx context.Context, exec repositories.SQLExecutor, t *models.Team) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, other := range r.s.teams {
		if other.Name == t.Name {
			return repositories.ErrTeamNameConflict
		}
		if other.LeaderID == t.LeaderID {
			return repositories.ErrTeamLeaderConflict
		}
	}
	t.ID = r.s.id()
	cp := *t
	cp.Members = nil
	r.s.teams[t.ID] = &cp
	return nil
}

func (r fakeTeamRepo) AddMember(ctx context.Context, exec repositories.SQLExecutor, m *models.TeamMember) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.takeFailure(); err != nil {
		return err
	}
	if _, ok := r.s.teams[m.TeamID]; !ok {
		return repositories.ErrTeamNotFound
	}
	m.ID = r.s.id()
	r.s.members[m.TeamID] = append(r.s.members[m.TeamID], *m)
	return nil
}

func (r fakeTeamRepo) GetByID(ctx context.Context, id int) (*models.Team, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.teams[id]
	if !ok {
		return nil, repositories.ErrTeamNotFound
	}
	cp := *t
	return &cp, nil
}

func (r fakeTeamRepo) GetByLeaderID(ctx context.Context, leaderID int) (*models.Team, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, t := range r.s.teams {
		if t.LeaderID == leaderID {
			cp := *t
			return &cp, nil
		}
	}
	return nil, repositories.ErrTeamNotFound
}

func (r fakeTeamRepo) ListMembers(ctx context.Context, teamID int) ([]models.TeamMember, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return append([]models.TeamMember{}, r.s.members[teamID]...), nil
}

func (r fakeTeamRepo) List(ctx context.Context, filter repositories.ListTeamsFilter) ([]models.Team, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []models.Team{}
	for _, t := range r.s.teams {
		if filter.Status == nil || t.Status == *filter.Status {
			out = append(out, *t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r fakeTeamRepo) UpdateStatus(ctx context.Context, exec repositories.SQLExecutor, id int, status models.TeamStatus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.teams[id]
	if !ok {
		return repositories.ErrTeamNotFound
	}
	t.Status = status
	return nil
}

// --- users ---

type fakeUserRepo struct{ s *store }

func (r fakeUserRepo) Create(ctx context.Context, u *models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, other := range r.s.users {
		if other.Email == u.Email {
			return repositories.ErrUserEmailConflict
		}
	}
	u.ID = r.s.id()
	cp := *u
	r.s.users[u.ID] = &cp
	return nil
}

func (r fakeUserRepo) GetByID(ctx context.Context, id int) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, repositories.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (r fakeUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repositories.ErrUserNotFound
}

// --- progress ---

type fakeProgressRepo struct{ s *store }

func (r fakeProgressRepo) findLocked(teamID, stageID int) *models.ProgressEntry {
	for _, p := range r.s.progress {
		if p.TeamID == teamID && p.StageID == stageID {
			return p
		}
	}
	return nil
}

func (r fakeProgressRepo) Create(ctx context.Context, exec repositories.SQLExecutor, e *models.ProgressEntry) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.findLocked(e.TeamID, e.StageID) != nil {
		return repositories.ErrProgressConflict
	}
	e.ID = r.s.id()
	cp := *e
	r.s.progress[e.ID] = &cp
	return nil
}

func (r fakeProgressRepo) CreateIfAbsent(ctx context.Context, exec repositories.SQLExecutor, teamID, stageID int) (*models.ProgressEntry, bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.takeFailure(); err != nil {
		return nil, false, err
	}
	if p := r.findLocked(teamID, stageID); p != nil {
		cp := *p
		return &cp, false, nil
	}
	e := &models.ProgressEntry{ID: r.s.id(), TeamID: teamID, StageID: stageID, Status: models.ProgressNotStarted}
	r.s.progress[e.ID] = e
	cp := *e
	return &cp, true, nil
}

func (r fakeProgressRepo) GetByID(ctx context.Context, id int) (*models.ProgressEntry, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.progress[id]
	if !ok {
		return nil, repositories.ErrProgressNotFound
	}
	cp := *p
	return &cp, nil
}

func (r fakeProgressRepo) GetForUpdate(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.ProgressEntry, error) {
	return r.GetByID(ctx, id)
}

func (r fakeProgressRepo) GetByTeamAndStage(ctx context.Context, teamID, stageID int) (*models.ProgressEntry, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.takeFailure(); err != nil {
		return nil, err
	}
	p := r.findLocked(teamID, stageID)
	if p == nil {
		return nil, repositories.ErrProgressNotFound
	}
	cp := *p
	return &cp, nil
}

func (r fakeProgressRepo) ListByTeam(ctx context.Context, teamID int) ([]*models.ProgressEntry, error) {
	return r.list(func(p *models.ProgressEntry) bool { return p.TeamID == teamID }), nil
}

func (r fakeProgressRepo) ListByStage(ctx context.Context, stageID int, status *models.ProgressStatus) ([]*models.ProgressEntry, error) {
	return r.list(func(p *models.ProgressEntry) bool {
		return p.StageID == stageID && (status == nil || p.Status == *status)
	}), nil
}

func (r fakeProgressRepo) list(keep func(*models.ProgressEntry) bool) []*models.ProgressEntry {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []*models.ProgressEntry{}
	for _, p := range r.s.progress {
		if keep(p) {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r fakeProgressRepo) CompareAndSetStatus(ctx context.Context, exec repositories.SQLExecutor, id int, from []models.ProgressStatus, to models.ProgressStatus, now time.Time) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.progress[id]
	if !ok {
		return false, nil
	}
	for _, f := range from {
		if p.Status == f {
			p.Status = to
			p.UpdatedAt = now
			switch to {
			case models.ProgressSubmitted:
				p.SubmittedAt = &now
			case models.ProgressApproved:
				p.ApprovedAt = &now
			}
			return true, nil
		}
	}
	return false, nil
}

func (r fakeProgressRepo) SeedOpenStages(ctx context.Context, now time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	minSeq := 0
	for _, st := range r.s.stages {
		if minSeq == 0 || st.Sequence < minSeq {
			minSeq = st.Sequence
		}
	}
	var n int64
	for _, st := range r.s.stages {
		if !st.WindowContains(now) {
			continue
		}
		for _, t := range r.s.teams {
			if t.Status != models.TeamStatusApproved || r.findLocked(t.ID, st.ID) != nil {
				continue
			}
			if st.Sequence != minSeq && !r.prevApprovedLocked(t.ID, st.Sequence-1) {
				continue
			}
			e := &models.ProgressEntry{ID: r.s.id(), TeamID: t.ID, StageID: st.ID, Status: models.ProgressNotStarted}
			r.s.progress[e.ID] = e
			n++
		}
	}
	return n, nil
}

func (r fakeProgressRepo) prevApprovedLocked(teamID, seq int) bool {
	for _, st := range r.s.stages {
		if st.Sequence == seq {
			p := r.findLocked(teamID, st.ID)
			return p != nil && p.Status == models.ProgressApproved
		}
	}
	return false
}

func (r fakeProgressRepo) ActivateOpenStages(ctx context.Context, now time.Time) (int64, error) {
	return r.bulk(now, models.ProgressNotStarted, models.ProgressInProgress, func(st *models.Stage) bool {
		return st.WindowContains(now)
	})
}

func (r fakeProgressRepo) ExpireClosedStages(ctx context.Context, now time.Time) (int64, error) {
	return r.bulk(now, models.ProgressInProgress, models.ProgressRejected, func(st *models.Stage) bool {
		return st.EndsAt != nil && st.EndsAt.Before(now)
	})
}

func (r fakeProgressRepo) bulk(now time.Time, from, to models.ProgressStatus, match func(*models.Stage) bool) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.takeFailure(); err != nil {
		return 0, err
	}
	var n int64
	for _, p := range r.s.progress {
		st, ok := r.s.stages[p.StageID]
		if ok && p.Status == from && match(st) {
			p.Status = to
			p.UpdatedAt = now
			n++
		}
	}
	return n, nil
}

// --- assignments ---

type fakeAssignmentRepo struct{ s *store }

func (r fakeAssignmentRepo) Create(ctx context.Context, a *models.Assignment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.stages[a.StageID]; !ok {
		return repositories.ErrAssignmentStageInvalid
	}
	a.ID = r.s.id()
	cp := *a
	r.s.assignments[a.ID] = &cp
	return nil
}

func (r fakeAssignmentRepo) GetByID(ctx context.Context, id int) (*models.Assignment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.assignments[id]
	if !ok {
		return nil, repositories.ErrAssignmentNotFound
	}
	cp := *a
	return &cp, nil
}

func (r fakeAssignmentRepo) ListByStage(ctx context.Context, stageID int, activeOnly bool) ([]models.Assignment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []models.Assignment{}
	for _, a := range r.s.assignments {
		if a.StageID == stageID && (!activeOnly || a.IsActive) {
			out = append(out, *a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Deadline.Before(out[j].Deadline) })
	return out, nil
}

func (r fakeAssignmentRepo) Update(ctx context.Context, a *models.Assignment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.assignments[a.ID]; !ok {
		return repositories.ErrAssignmentNotFound
	}
	cp := *a
	r.s.assignments[a.ID] = &cp
	return nil
}

func (r fakeAssignmentRepo) SetActive(ctx context.Context, id int, active bool) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.assignments[id]
	if !ok {
		return repositories.ErrAssignmentNotFound
	}
	a.IsActive = active
	return nil
}

// --- submissions ---

type fakeSubmissionRepo struct{ s *store }

func (r fakeSubmissionRepo) Create(ctx context.Context, sub *models.Submission) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, other := range r.s.submissions {
		if other.AssignmentID == sub.AssignmentID && other.TeamID == sub.TeamID {
			return repositories.ErrSubmissionConflict
		}
	}
	sub.ID = r.s.id()
	cp := *sub
	r.s.submissions[sub.ID] = &cp
	return nil
}

func (r fakeSubmissionRepo) GetByID(ctx context.Context, id int) (*models.Submission, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sub, ok := r.s.submissions[id]
	if !ok {
		return nil, repositories.ErrSubmissionNotFound
	}
	cp := *sub
	return &cp, nil
}

func (r fakeSubmissionRepo) GetByAssignmentAndTeam(ctx context.Context, assignmentID, teamID int) (*models.Submission, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, sub := range r.s.submissions {
		if sub.AssignmentID == assignmentID && sub.TeamID == teamID {
			cp := *sub
			return &cp, nil
		}
	}
	return nil, repositories.ErrSubmissionNotFound
}

func (r fakeSubmissionRepo) ListByTeam(ctx context.Context, teamID int) ([]*models.Submission, error) {
	return r.list(func(sub *models.Submission) bool { return sub.TeamID == teamID }), nil
}

func (r fakeSubmissionRepo) ListByAssignment(ctx context.Context, assignmentID int) ([]*models.Submission, error) {
	subs := r.list(func(sub *models.Submission) bool { return sub.AssignmentID == assignmentID })
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, sub := range subs {
		if t, ok := r.s.teams[sub.TeamID]; ok {
			team := *t
			if u, ok := r.s.users[t.LeaderID]; ok {
				leader := *u
				team.Leader = &leader
			}
			sub.Team = &team
		}
		if sub.GradedBy != nil {
			if u, ok := r.s.users[*sub.GradedBy]; ok {
				grader := *u
				sub.Grader = &grader
			}
		}
	}
	return subs, nil
}

func (r fakeSubmissionRepo) list(keep func(*models.Submission) bool) []*models.Submission {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []*models.Submission{}
	for _, sub := range r.s.submissions {
		if keep(sub) {
			cp := *sub
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r fakeSubmissionRepo) ApplyGrade(ctx context.Context, exec repositories.SQLExecutor, id int, u repositories.GradeUpdate) (*models.Submission, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.gradeCalls++
	if r.s.failGradeAt != 0 && r.s.gradeCalls == r.s.failGradeAt {
		return nil, errStorageDown
	}
	sub, ok := r.s.submissions[id]
	if !ok {
		return nil, repositories.ErrSubmissionNotFound
	}
	grade := u.Grade
	gradedAt := u.GradedAt
	grader := u.GraderID
	sub.Grade = &grade
	sub.Feedback = u.Feedback
	sub.GradedBy = &grader
	sub.GradedAt = &gradedAt
	sub.Status = models.SubmissionGraded
	cp := *sub
	return &cp, nil
}

// --- materials ---

type fakeMaterialRepo struct{ s *store }

func (r fakeMaterialRepo) Create(ctx context.Context, m *models.CourseMaterial) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m.ID = r.s.id()
	cp := *m
	r.s.materials[m.ID] = &cp
	return nil
}

func (r fakeMaterialRepo) GetByID(ctx context.Context, id int) (*models.CourseMaterial, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m, ok := r.s.materials[id]
	if !ok {
		return nil, repositories.ErrMaterialNotFound
	}
	cp := *m
	return &cp, nil
}

func (r fakeMaterialRepo) ListByStage(ctx context.Context, stageID int) ([]models.CourseMaterial, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []models.CourseMaterial{}
	for _, m := range r.s.materials {
		if m.StageID == stageID {
			out = append(out, *m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r fakeMaterialRepo) UpdateFileKey(ctx context.Context, id int, key *string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m, ok := r.s.materials[id]
	if !ok {
		return repositories.ErrMaterialNotFound
	}
	m.FileKey = key
	return nil
}

func (r fakeMaterialRepo) Delete(ctx context.Context, id int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.materials[id]; !ok {
		return repositories.ErrMaterialNotFound
	}
	delete(r.s.materials, id)
	return nil
}

// --- collaborators ---

type fakeUploader struct {
	mu      sync.Mutex
	objects map[string][]byte
	deleted []string
}

func newFakeUploader() *fakeUploader {
	return &fakeUploader{objects: map[string][]byte{}}
}

func (u *fakeUploader) Upload(ctx context.Context, key, contentType string, reader io.Reader) (*storage.UploadResult, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	u.objects[key] = data
	return &storage.UploadResult{Key: key, Location: u.GetPublicURL(key)}, nil
}

func (u *fakeUploader) Delete(ctx context.Context, key string) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	delete(u.objects, key)
	u.deleted = append(u.deleted, key)
	return nil
}

func (u *fakeUploader) GetPublicURL(key string) string {
	return "https://cdn.example/" + key
}

type fakeSheets struct {
	title string
	rows  []models.ExportRow
	err   error
}

func (f *fakeSheets) ExportRows(ctx context.Context, title string, rows []models.ExportRow) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.title = title
	f.rows = rows
	return fmt.Sprintf("%s!A1:I%d", title, len(rows)+1), nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []live.Event
	rooms  []string
}

func (p *recordingPublisher) Publish(room string, event live.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.rooms = append(p.rooms, room)
	p.events = append(p.events, event)
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

var errStorageDown = errors.New("storage unavailable")

// --- fixture ---

type fixture struct {
	store       *store
	stages      fakeStageRepo
	teams       fakeTeamRepo
	users       fakeUserRepo
	progress    fakeProgressRepo
	assignments fakeAssignmentRepo
	submissions fakeSubmissionRepo
	materials   fakeMaterialRepo
	tx          fakeTx
	publisher   *recordingPublisher
	validator   *Validator
	logger      *slog.Logger
}

func newFixture() *fixture {
	s := newStore()
	return &fixture{
		store:       s,
		stages:      fakeStageRepo{s},
		teams:       fakeTeamRepo{s},
		users:       fakeUserRepo{s},
		progress:    fakeProgressRepo{s},
		assignments: fakeAssignmentRepo{s},
		submissions: fakeSubmissionRepo{s},
		materials:   fakeMaterialRepo{s},
		tx:          fakeTx{s},
		publisher:   &recordingPublisher{},
		validator:   NewValidator(),
		logger:      discardLogger(),
	}
}

func (f *fixture) addStage(slug string, seq int, startsAt, endsAt *time.Time) *models.Stage {
	st := &models.Stage{Slug: slug, Name: slug, Sequence: seq, StartsAt: startsAt, EndsAt: endsAt}
	if err := f.stages.Create(context.Background(), st); err != nil {
		panic(err)
	}
	return st
}

func (f *fixture) addUser(email string) *models.User {
	u := &models.User{FirstName: "Lead", LastName: email, Email: email, Role: models.RoleParticipant}
	if err := f.users.Create(context.Background(), u); err != nil {
		panic(err)
	}
	return u
}

func (f *fixture) addTeam(name string, status models.TeamStatus) *models.Team {
	leader := f.addUser(name + "@example.com")
	t := &models.Team{Name: name, LeaderID: leader.ID, Status: status}
	if err := f.teams.Create(context.Background(), nil, t); err != nil {
		panic(err)
	}
	return t
}

func (f *fixture) addProgress(teamID, stageID int, status models.ProgressStatus) *models.ProgressEntry {
	e := &models.ProgressEntry{TeamID: teamID, StageID: stageID, Status: status}
	if err := f.progress.Create(context.Background(), nil, e); err != nil {
		panic(err)
	}
	return e
}

func (f *fixture) addAssignment(stageID int, deadline time.Time, active bool) *models.Assignment {
	a := &models.Assignment{StageID: stageID, Title: "task", Deadline: deadline, IsActive: active, CreatedBy: 1}
	if err := f.assignments.Create(context.Background(), a); err != nil {
		panic(err)
	}
	return a
}

func (f *fixture) addSubmission(assignmentID, teamID int, submittedAt time.Time) *models.Submission {
	sub := &models.Submission{
		AssignmentID:   assignmentID,
		TeamID:         teamID,
		SubmissionLink: "https://git.example/repo",
		Status:         models.SubmissionPending,
		SubmittedAt:    submittedAt,
	}
	if err := f.submissions.Create(context.Background(), sub); err != nil {
		panic(err)
	}
	return sub
}

func (f *fixture) entryStatus(id int) models.ProgressStatus {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	return f.store.progress[id].Status
}

func (f *fixture) gate(slug string) StageGate {
	return NewStageGate(f.teams, f.stages, f.progress, slug)
}

func tp(t time.Time) *time.Time { return &t }

func date(month time.Month, day int) time.Time {
	return time.Date(2025, month, day, 12, 0, 0, 0, time.UTC)
}
