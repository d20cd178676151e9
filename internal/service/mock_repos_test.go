package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/savalagikadappa/infosys/config"
	"github.com/savalagikadappa/infosys/internal/model"
	"github.com/savalagikadappa/infosys/internal/repository"
	pkgerrors "github.com/savalagikadappa/infosys/pkg/errors"
)

// errStoreDown 模拟数据库不可用
var errStoreDown = errors.New("connection refused")

// uniqueViolation 构造与 pkgerrors.FromDB 相同形态的错误
func uniqueViolation(constraint string) error {
	return &pkgerrors.UniqueViolation{Constraint: constraint, Err: fmt.Errorf("duplicate key value violates unique constraint %q", constraint)}
}

// foreignKeyViolation 构造与 pkgerrors.FromDB 相同形态的外键错误
func foreignKeyViolation(constraint string) error {
	return fmt.Errorf("%w: update or delete violates foreign key constraint %q", pkgerrors.ErrForeignKeyViolation, constraint)
}

// mockClock 单调递增的时间戳，模拟 created_at 插入顺序
type mockClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *mockClock) tick() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.now.IsZero() {
		c.now = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	}
	c.now = c.now.Add(time.Second)
	return c.now
}

// ── Mock UserRepository ──

type mockUserRepo struct {
	mu    sync.Mutex
	users map[string]*model.User
	seq   int
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User)}
}

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == user.Email {
			return uniqueViolation("uq_users_email")
		}
	}
	if user.UserID == "" {
		m.seq++
		user.UserID = fmt.Sprintf("user-%03d", m.seq)
	}
	m.users[user.UserID] = user
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) ListByIDs(_ context.Context, ids []string) ([]model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []model.User
	for _, id := range ids {
		if u, ok := m.users[id]; ok {
			result = append(result, *u)
		}
	}
	return result, nil
}

func (m *mockUserRepo) List(_ context.Context, filter repository.UserFilter, offset, limit int) ([]model.User, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	kw := strings.ToLower(filter.Keyword)
	var all []model.User
	for _, u := range m.users {
		if filter.Role != "" && u.Role != filter.Role {
			continue
		}
		if kw != "" && !strings.Contains(strings.ToLower(u.Name), kw) && !strings.Contains(strings.ToLower(u.Email), kw) {
			continue
		}
		all = append(all, *u)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].UserID < all[j].UserID })
	total := int64(len(all))
	if offset > len(all) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

// ── Mock TrainingSessionRepository ──

type mockSessionRepo struct {
	mu          sync.Mutex
	sessions    map[string]*model.TrainingSession
	enrollments *mockEnrollmentRepo
	allocations *mockAllocationRepo
	clock       *mockClock
	seq         int
	// deleteErr 非空时 Delete 直接返回该错误
	deleteErr error
}

func (m *mockSessionRepo) Create(_ context.Context, s *model.TrainingSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s.SessionID == "" {
		m.seq++
		s.SessionID = fmt.Sprintf("session-%03d", m.seq)
	}
	s.CreatedAt = m.clock.tick()
	m.sessions[s.SessionID] = s
	return nil
}

func (m *mockSessionRepo) get(id string) (*model.TrainingSession, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	return s, ok
}

func (m *mockSessionRepo) GetByID(_ context.Context, id string) (*model.TrainingSession, error) {
	if s, ok := m.get(id); ok {
		cp := *s
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockSessionRepo) ListByIDs(_ context.Context, ids []string) ([]model.TrainingSession, error) {
	var result []model.TrainingSession
	for _, id := range ids {
		if s, ok := m.get(id); ok {
			result = append(result, *s)
		}
	}
	return result, nil
}

func (m *mockSessionRepo) sorted(keep func(*model.TrainingSession) bool) []model.TrainingSession {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []model.TrainingSession
	for _, s := range m.sessions {
		if keep(s) {
			result = append(result, *s)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	return result
}

func (m *mockSessionRepo) ListByTrainer(_ context.Context, trainerID string) ([]model.TrainingSession, error) {
	result := m.sorted(func(s *model.TrainingSession) bool {
		return s.CreatedBy != nil && *s.CreatedBy == trainerID
	})
	for i := range result {
		result[i].Enrollments = m.enrollments.bySession(result[i].SessionID)
	}
	return result, nil
}

func (m *mockSessionRepo) ListNotEnrolled(_ context.Context, candidateID string) ([]model.TrainingSession, error) {
	enrolled := make(map[string]bool)
	for _, e := range m.enrollments.byCandidate(candidateID) {
		enrolled[e.SessionID] = true
	}
	return m.sorted(func(s *model.TrainingSession) bool { return !enrolled[s.SessionID] }), nil
}

// Delete 与 exam_allocations.session_id 外键一致：已有分配时拒绝删除
func (m *mockSessionRepo) Delete(_ context.Context, id string) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	if len(m.allocations.filter(func(a model.ExamAllocation) bool { return a.SessionID == id })) > 0 {
		return foreignKeyViolation("exam_allocations_session_id_fkey")
	}
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
	m.enrollments.deleteBySession(id)
	return nil
}

// ── Mock EnrollmentRepository ──

type mockEnrollmentRepo struct {
	mu       sync.Mutex
	list     []model.Enrollment
	sessions *mockSessionRepo
	seq      int
	failErr  error
}

func (m *mockEnrollmentRepo) Create(_ context.Context, e *model.Enrollment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, x := range m.list {
		if x.SessionID == e.SessionID && x.CandidateID == e.CandidateID {
			return uniqueViolation(repository.ConstraintEnrollmentSessionCandidate)
		}
		if x.CandidateID == e.CandidateID && x.DayOfWeek == e.DayOfWeek {
			return uniqueViolation(repository.ConstraintEnrollmentCandidateDay)
		}
	}
	if e.EnrollmentID == "" {
		m.seq++
		e.EnrollmentID = fmt.Sprintf("enrollment-%03d", m.seq)
	}
	stored := *e
	stored.Session = nil
	m.list = append(m.list, stored)
	return nil
}

func (m *mockEnrollmentRepo) withSession(e model.Enrollment) model.Enrollment {
	if s, ok := m.sessions.get(e.SessionID); ok {
		cp := *s
		e.Session = &cp
	}
	return e
}

func (m *mockEnrollmentRepo) filter(keep func(model.Enrollment) bool) []model.Enrollment {
	m.mu.Lock()
	var result []model.Enrollment
	for _, e := range m.list {
		if keep(e) {
			result = append(result, e)
		}
	}
	m.mu.Unlock()
	for i := range result {
		result[i] = m.withSession(result[i])
	}
	sort.SliceStable(result, func(i, j int) bool {
		if !result[i].EnrolledAt.Equal(result[j].EnrolledAt) {
			return result[i].EnrolledAt.Before(result[j].EnrolledAt)
		}
		return result[i].CandidateID < result[j].CandidateID
	})
	return result
}

func (m *mockEnrollmentRepo) bySession(sessionID string) []model.Enrollment {
	list := m.filter(func(e model.Enrollment) bool { return e.SessionID == sessionID })
	for i := range list {
		list[i].Session = nil
	}
	return list
}

func (m *mockEnrollmentRepo) byCandidate(candidateID string) []model.Enrollment {
	return m.filter(func(e model.Enrollment) bool { return e.CandidateID == candidateID })
}

func (m *mockEnrollmentRepo) deleteBySession(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.list[:0]
	for _, e := range m.list {
		if e.SessionID != sessionID {
			kept = append(kept, e)
		}
	}
	m.list = kept
}

func (m *mockEnrollmentRepo) GetBySessionAndCandidate(_ context.Context, sessionID, candidateID string) (*model.Enrollment, error) {
	if m.failErr != nil {
		return nil, m.failErr
	}
	list := m.filter(func(e model.Enrollment) bool {
		return e.SessionID == sessionID && e.CandidateID == candidateID
	})
	if len(list) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return &list[0], nil
}

func (m *mockEnrollmentRepo) ListByCandidate(_ context.Context, candidateID string) ([]model.Enrollment, error) {
	if m.failErr != nil {
		return nil, m.failErr
	}
	return m.byCandidate(candidateID), nil
}

func (m *mockEnrollmentRepo) ListAll(_ context.Context) ([]model.Enrollment, error) {
	return m.filter(func(model.Enrollment) bool { return true }), nil
}

func (m *mockEnrollmentRepo) ExistsForDay(_ context.Context, candidateID, dayOfWeek string) (bool, error) {
	list := m.filter(func(e model.Enrollment) bool {
		return e.CandidateID == candidateID && e.DayOfWeek == dayOfWeek
	})
	return len(list) > 0, nil
}

// ── Mock AvailabilityRepository ──

type mockAvailabilityRepo struct {
	mu          sync.Mutex
	list        []model.ExaminerAvailability
	allocations *mockAllocationRepo
	clock       *mockClock
	seq         int
	failErr     error
}

func (m *mockAvailabilityRepo) Toggle(_ context.Context, examinerID string, date time.Time) (bool, error) {
	if m.failErr != nil {
		return false, m.failErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, a := range m.list {
		if a.ExaminerID == examinerID && a.Date.Equal(date) {
			m.list = append(m.list[:i], m.list[i+1:]...)
			return false, nil
		}
	}
	m.seq++
	m.list = append(m.list, model.ExaminerAvailability{
		AvailabilityID: fmt.Sprintf("avail-%03d", m.seq),
		ExaminerID:     examinerID,
		Date:           date,
		CreatedAt:      m.clock.tick(),
	})
	return true, nil
}

func (m *mockAvailabilityRepo) filter(keep func(model.ExaminerAvailability) bool) []model.ExaminerAvailability {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []model.ExaminerAvailability
	for _, a := range m.list {
		if keep(a) {
			result = append(result, a)
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		if !result[i].Date.Equal(result[j].Date) {
			return result[i].Date.Before(result[j].Date)
		}
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.Before(result[j].CreatedAt)
		}
		return result[i].ExaminerID < result[j].ExaminerID
	})
	return result
}

func (m *mockAvailabilityRepo) Exists(_ context.Context, examinerID string, date time.Time) (bool, error) {
	list := m.filter(func(a model.ExaminerAvailability) bool {
		return a.ExaminerID == examinerID && a.Date.Equal(date)
	})
	return len(list) > 0, nil
}

func (m *mockAvailabilityRepo) ListByExaminer(_ context.Context, examinerID string) ([]model.ExaminerAvailability, error) {
	if m.failErr != nil {
		return nil, m.failErr
	}
	return m.filter(func(a model.ExaminerAvailability) bool { return a.ExaminerID == examinerID }), nil
}

func (m *mockAvailabilityRepo) ListByDate(_ context.Context, date time.Time) ([]model.ExaminerAvailability, error) {
	if m.failErr != nil {
		return nil, m.failErr
	}
	return m.filter(func(a model.ExaminerAvailability) bool { return a.Date.Equal(date) }), nil
}

func (m *mockAvailabilityRepo) ListRange(_ context.Context, from, to time.Time) ([]model.ExaminerAvailability, error) {
	return m.filter(func(a model.ExaminerAvailability) bool {
		return !a.Date.Before(from) && !a.Date.After(to)
	}), nil
}

func (m *mockAvailabilityRepo) ListOpenDates(ctx context.Context, capacity int) ([]time.Time, error) {
	if m.failErr != nil {
		return nil, m.failErr
	}
	var dates []time.Time
	seen := make(map[time.Time]bool)
	for _, a := range m.filter(func(model.ExaminerAvailability) bool { return true }) {
		load, _ := m.allocations.LoadByDate(ctx, a.Date)
		if load[a.ExaminerID] < capacity && !seen[a.Date] {
			seen[a.Date] = true
			dates = append(dates, a.Date)
		}
	}
	return dates, nil
}

// ── Mock AllocationRepository ──
// Create 与 SQL 唯一约束行为一致

type mockAllocationRepo struct {
	mu      sync.Mutex
	list    []model.ExamAllocation
	clock   *mockClock
	seq     int
	failErr error
	// skipPrecheck=true 时存在性查询恒为 false，用于验证唯一约束兜底
	skipPrecheck bool
}

func (m *mockAllocationRepo) Create(_ context.Context, a *model.ExamAllocation) error {
	if m.failErr != nil {
		return m.failErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, x := range m.list {
		if x.CandidateID == a.CandidateID && x.SessionID == a.SessionID {
			return uniqueViolation(repository.ConstraintAllocationCandidateSession)
		}
		if x.CandidateID == a.CandidateID && x.Date.Equal(a.Date) {
			return uniqueViolation(repository.ConstraintAllocationCandidateDate)
		}
	}
	m.seq++
	a.AllocationID = fmt.Sprintf("alloc-%03d", m.seq)
	if a.Status == "" {
		a.Status = model.AllocationStatusAllocated
	}
	a.Version = 1
	a.CreatedAt = m.clock.tick()
	m.list = append(m.list, *a)
	return nil
}

func (m *mockAllocationRepo) filter(keep func(model.ExamAllocation) bool) []model.ExamAllocation {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []model.ExamAllocation
	for _, a := range m.list {
		if keep(a) {
			result = append(result, a)
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		if !result[i].Date.Equal(result[j].Date) {
			return result[i].Date.Before(result[j].Date)
		}
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result
}

func (m *mockAllocationRepo) GetByID(_ context.Context, id string) (*model.ExamAllocation, error) {
	list := m.filter(func(a model.ExamAllocation) bool { return a.AllocationID == id })
	if len(list) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return &list[0], nil
}

func (m *mockAllocationRepo) ExistsForCandidateSession(_ context.Context, candidateID, sessionID string) (bool, error) {
	if m.failErr != nil {
		return false, m.failErr
	}
	if m.skipPrecheck {
		return false, nil
	}
	list := m.filter(func(a model.ExamAllocation) bool {
		return a.CandidateID == candidateID && a.SessionID == sessionID
	})
	return len(list) > 0, nil
}

func (m *mockAllocationRepo) ExistsForCandidateDate(_ context.Context, candidateID string, date time.Time) (bool, error) {
	if m.skipPrecheck {
		return false, nil
	}
	list := m.filter(func(a model.ExamAllocation) bool {
		return a.CandidateID == candidateID && a.Date.Equal(date)
	})
	return len(list) > 0, nil
}

func (m *mockAllocationRepo) ExistsForSession(_ context.Context, sessionID string) (bool, error) {
	if m.skipPrecheck {
		return false, nil
	}
	return len(m.filter(func(a model.ExamAllocation) bool { return a.SessionID == sessionID })) > 0, nil
}

func (m *mockAllocationRepo) LoadByDate(_ context.Context, date time.Time) (map[string]int, error) {
	load := make(map[string]int)
	for _, a := range m.filter(func(a model.ExamAllocation) bool { return a.Date.Equal(date) }) {
		load[a.ExaminerID]++
	}
	return load, nil
}

func (m *mockAllocationRepo) ListByCandidate(_ context.Context, candidateID string) ([]model.ExamAllocation, error) {
	if m.failErr != nil {
		return nil, m.failErr
	}
	return m.filter(func(a model.ExamAllocation) bool { return a.CandidateID == candidateID }), nil
}

func (m *mockAllocationRepo) ListByExaminer(_ context.Context, examinerID string) ([]model.ExamAllocation, error) {
	return m.filter(func(a model.ExamAllocation) bool { return a.ExaminerID == examinerID }), nil
}

func (m *mockAllocationRepo) ListByDate(_ context.Context, date time.Time) ([]model.ExamAllocation, error) {
	return m.filter(func(a model.ExamAllocation) bool { return a.Date.Equal(date) }), nil
}

func (m *mockAllocationRepo) ListRange(_ context.Context, from, to time.Time) ([]model.ExamAllocation, error) {
	return m.filter(func(a model.ExamAllocation) bool {
		return !a.Date.Before(from) && !a.Date.After(to)
	}), nil
}

func (m *mockAllocationRepo) UpdateStatus(_ context.Context, a *model.ExamAllocation, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.list {
		if m.list[i].AllocationID != a.AllocationID {
			continue
		}
		if m.list[i].Version != a.Version {
			return pkgerrors.ErrOptimisticLock
		}
		m.list[i].Status = status
		m.list[i].Version++
		a.Status = status
		a.Version = m.list[i].Version
		return nil
	}
	return pkgerrors.ErrOptimisticLock
}

func (m *mockAllocationRepo) CompleteBefore(_ context.Context, date time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for i := range m.list {
		if m.list[i].Date.Before(date) && m.list[i].Status == model.AllocationStatusAllocated {
			m.list[i].Status = model.AllocationStatusCompleted
			m.list[i].Version++
			n++
		}
	}
	return n, nil
}

// ── Mock NotificationRepository ──

type mockNotificationRepo struct {
	mu   sync.Mutex
	list []model.Notification
	seq  int
}

func (m *mockNotificationRepo) Create(_ context.Context, n *model.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	n.NotificationID = fmt.Sprintf("notification-%03d", m.seq)
	n.CreatedAt = time.Date(2025, 1, 1, 0, 0, m.seq, 0, time.UTC)
	m.list = append(m.list, *n)
	return nil
}

func (m *mockNotificationRepo) ListByUser(_ context.Context, userID string, limit int) ([]model.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []model.Notification
	for i := len(m.list) - 1; i >= 0 && len(result) < limit; i-- {
		if m.list[i].UserID == userID {
			result = append(result, m.list[i])
		}
	}
	return result, nil
}

func (m *mockNotificationRepo) MarkRead(_ context.Context, id, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.list {
		if m.list[i].NotificationID == id && m.list[i].UserID == userID {
			m.list[i].IsRead = true
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

// ── Mock TxManager ──
// WithDateLock 按日期互斥，与 pg_advisory_xact_lock 的串行化效果一致

type mockTxManager struct {
	repo  *repository.Repository
	mu    sync.Mutex
	locks map[string]*sync.Mutex
	// lockedDates 按调用顺序记录加锁日期
	lockedDates []string
}

func (m *mockTxManager) Transaction(_ context.Context, fn func(tx *repository.Repository) error) error {
	return fn(m.repo)
}

func (m *mockTxManager) WithDateLock(_ context.Context, date time.Time, fn func(tx *repository.Repository) error) error {
	key := date.UTC().Format(model.DateLayout)
	m.mu.Lock()
	lock, ok := m.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		m.locks[key] = lock
	}
	m.lockedDates = append(m.lockedDates, key)
	m.mu.Unlock()

	lock.Lock()
	defer lock.Unlock()
	return fn(m.repo)
}

// ── 组装 ──

type mockStore struct {
	users         *mockUserRepo
	sessions      *mockSessionRepo
	enrollments   *mockEnrollmentRepo
	availability  *mockAvailabilityRepo
	allocations   *mockAllocationRepo
	notifications *mockNotificationRepo
	tx            *mockTxManager
}

func newMockRepository() (*repository.Repository, *mockStore) {
	clock := &mockClock{}
	st := &mockStore{
		users:         newMockUserRepo(),
		allocations:   &mockAllocationRepo{clock: clock},
		notifications: &mockNotificationRepo{},
	}
	st.sessions = &mockSessionRepo{sessions: make(map[string]*model.TrainingSession), allocations: st.allocations, clock: clock}
	st.enrollments = &mockEnrollmentRepo{sessions: st.sessions}
	st.sessions.enrollments = st.enrollments
	st.availability = &mockAvailabilityRepo{allocations: st.allocations, clock: clock}

	repo := &repository.Repository{
		User:         st.users,
		Session:      st.sessions,
		Enrollment:   st.enrollments,
		Availability: st.availability,
		Allocation:   st.allocations,
		Notification: st.notifications,
	}
	st.tx = &mockTxManager{repo: repo, locks: make(map[string]*sync.Mutex)}
	repo.Tx = st.tx
	return repo, st
}

// ── 测试数据 ──

func testConfig(capacity int) *config.Config {
	return &config.Config{
		Auth: config.AuthConfig{
			JWTSecret:       "test-secret-key-for-unit-testing-2025",
			AccessTokenTTL:  15 * time.Minute,
			RefreshTokenTTL: 7 * 24 * time.Hour,
		},
		Exam:  config.ExamConfig{ExaminerDailyCapacity: capacity},
		Cache: config.CacheConfig{AvailableDatesTTL: time.Minute},
	}
}

func (st *mockStore) addUser(id, role string) *model.User {
	u := &model.User{UserID: id, Name: id, Email: id + "@academy.test", Role: role}
	_ = st.users.Create(context.Background(), u)
	return u
}

func (st *mockStore) addSession(id, title, day string) *model.TrainingSession {
	trainer := "trainer-1"
	s := &model.TrainingSession{SessionID: id, Title: title, Mode: model.ModeOnline, DayOfWeek: day}
	s.CreatedBy = &trainer
	_ = st.sessions.Create(context.Background(), s)
	return s
}

// enroll 以 enrolledAt 为锚点保存四次培训日期；legacy=true 时不保存
func (st *mockStore) enroll(t *testing.T, sessionID, candidateID string, enrolledAt time.Time, legacy bool) *model.Enrollment {
	t.Helper()
	s, ok := st.sessions.get(sessionID)
	if !ok {
		t.Fatalf("课程 %s 不存在", sessionID)
	}
	e := &model.Enrollment{
		SessionID:   sessionID,
		CandidateID: candidateID,
		DayOfWeek:   s.DayOfWeek,
		EnrolledAt:  enrolledAt,
	}
	if !legacy {
		wd, err := ParseWeekday(s.DayOfWeek)
		if err != nil {
			t.Fatalf("课程星期无效: %v", err)
		}
		dates, _ := Project(enrolledAt, wd, TrainingOccurrences)
		e.ProjectedDates = dates
	}
	if err := st.enrollments.Create(context.Background(), e); err != nil {
		t.Fatalf("创建报名失败: %v", err)
	}
	return e
}

func (st *mockStore) makeAvailable(t *testing.T, examinerID string, date time.Time) {
	t.Helper()
	on, err := st.availability.Toggle(context.Background(), examinerID, date)
	if err != nil || !on {
		t.Fatalf("登记考官 %s 可用日期失败: on=%v err=%v", examinerID, on, err)
	}
}

func (st *mockStore) addAllocation(t *testing.T, examinerID, candidateID, sessionID string, date time.Time) {
	t.Helper()
	a := &model.ExamAllocation{ExaminerID: examinerID, CandidateID: candidateID, SessionID: sessionID, Date: date}
	if err := st.allocations.Create(context.Background(), a); err != nil {
		t.Fatalf("预置考试分配失败: %v", err)
	}
}

// recordingPublisher 记录广播的事件类型
type recordingPublisher struct {
	mu     sync.Mutex
	events []string
}

func (p *recordingPublisher) Emit(_ context.Context, eventType string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, eventType)
}

func (p *recordingPublisher) count(eventType string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, e := range p.events {
		if e == eventType {
			n++
		}
	}
	return n
}

// recordingNotifier 记录通知接收人
type recordingNotifier struct {
	mu         sync.Mutex
	recipients []string
}

func (n *recordingNotifier) Notify(_ context.Context, userID, _, _, _ string, _ interface{}) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.recipients = append(n.recipients, userID)
}
