// Package storetest provides an in-memory store.Store implementation for
// tests. Semantics mirror the postgres store: lookups for missing rows return
// (nil, nil), conditional updates report how many rows they touched, and
// duplicate revision numbers fail with postgres.ErrDuplicateRevision.
package storetest

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gatherworks/coordinator/internal/models"
	"github.com/gatherworks/coordinator/internal/store"
	"github.com/gatherworks/coordinator/internal/store/postgres"
)

// MemoryStore is a map-backed store.Store for tests.
type MemoryStore struct {
	mu sync.Mutex

	events           map[string]*models.Event
	teams            map[string]*models.Team
	items            map[string]*models.Item
	days             map[string]*models.Day
	assignments      map[string]*models.Assignment
	people           map[string]*models.Person
	conflicts        map[string]*models.Conflict
	acknowledgements map[string]*models.Acknowledgement
	revisions        map[string]*models.PlanRevision
	tokens           map[string]*models.AccessToken
	users            map[string]*models.User
	passwords        map[string]string
	subscriptions    map[string]*models.Subscription
	inviteEvents     []*models.InviteEvent
	magicLinks       map[string]*models.MagicLink
	settings         map[string]string
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		events:           make(map[string]*models.Event),
		teams:            make(map[string]*models.Team),
		items:            make(map[string]*models.Item),
		days:             make(map[string]*models.Day),
		assignments:      make(map[string]*models.Assignment),
		people:           make(map[string]*models.Person),
		conflicts:        make(map[string]*models.Conflict),
		acknowledgements: make(map[string]*models.Acknowledgement),
		revisions:        make(map[string]*models.PlanRevision),
		tokens:           make(map[string]*models.AccessToken),
		users:            make(map[string]*models.User),
		passwords:        make(map[string]string),
		subscriptions:    make(map[string]*models.Subscription),
		magicLinks:       make(map[string]*models.MagicLink),
		settings:         make(map[string]string),
	}
}

func (m *MemoryStore) Events() store.EventStore                     { return &eventStore{m} }
func (m *MemoryStore) Teams() store.TeamStore                       { return &teamStore{m} }
func (m *MemoryStore) Items() store.ItemStore                       { return &itemStore{m} }
func (m *MemoryStore) Days() store.DayStore                         { return &dayStore{m} }
func (m *MemoryStore) Assignments() store.AssignmentStore           { return &assignmentStore{m} }
func (m *MemoryStore) People() store.PersonStore                    { return &personStore{m} }
func (m *MemoryStore) Conflicts() store.ConflictStore               { return &conflictStore{m} }
func (m *MemoryStore) Acknowledgements() store.AcknowledgementStore { return &ackStore{m} }
func (m *MemoryStore) Revisions() store.RevisionStore               { return &revisionStore{m} }
func (m *MemoryStore) Tokens() store.TokenStore                     { return &tokenStore{m} }
func (m *MemoryStore) Users() store.UserStore                       { return &userStore{m} }
func (m *MemoryStore) Subscriptions() store.SubscriptionStore       { return &subscriptionStore{m} }
func (m *MemoryStore) InviteEvents() store.InviteEventStore         { return &inviteEventStore{m} }
func (m *MemoryStore) MagicLinks() store.MagicLinkStore             { return &magicLinkStore{m} }
func (m *MemoryStore) Settings() store.SettingsStore                { return &settingsStore{m} }

// WithTx runs fn against the same store. Rollback is not simulated.
func (m *MemoryStore) WithTx(ctx context.Context, fn func(store.Store) error) error {
	return fn(m)
}

func (m *MemoryStore) Ping(ctx context.Context) error { return nil }

func (m *MemoryStore) Close() error { return nil }

func newID() string { return uuid.New().String() }

type eventStore struct{ m *MemoryStore }

func (s *eventStore) Create(ctx context.Context, event *models.Event) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if event.ID == "" {
		event.ID = newID()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}
	event.UpdatedAt = event.CreatedAt
	s.m.events[event.ID] = event
	return nil
}

func (s *eventStore) Get(ctx context.Context, id string) (*models.Event, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	return s.m.events[id], nil
}

func (s *eventStore) List(ctx context.Context, hostID string) ([]*models.Event, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	var result []*models.Event
	for _, e := range s.m.events {
		if e.HostID == hostID {
			result = append(result, e)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	return result, nil
}

func (s *eventStore) ListByStatus(ctx context.Context, status models.EventStatus) ([]*models.Event, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	var result []*models.Event
	for _, e := range s.m.events {
		if e.Status == status && !e.Archived {
			result = append(result, e)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	return result, nil
}

func (s *eventStore) Update(ctx context.Context, event *models.Event) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	event.UpdatedAt = time.Now()
	s.m.events[event.ID] = event
	return nil
}

func (s *eventStore) SetArchived(ctx context.Context, id string, archived bool) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if e, ok := s.m.events[id]; ok {
		e.Archived = archived
	}
	return nil
}

func (s *eventStore) SetStatus(ctx context.Context, id string, status models.EventStatus) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if e, ok := s.m.events[id]; ok {
		e.Status = status
		e.UpdatedAt = time.Now()
	}
	return nil
}

func (s *eventStore) CountActive(ctx context.Context, hostID string) (int, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	count := 0
	for _, e := range s.m.events {
		if e.HostID == hostID && !e.Archived && !e.IsLegacy {
			count++
		}
	}
	return count, nil
}

func (s *eventStore) ConfirmInviteSend(ctx context.Context, id string, at time.Time) (bool, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	e, ok := s.m.events[id]
	if !ok || e.InviteSendConfirmedAt != nil {
		return false, nil
	}
	e.InviteSendConfirmedAt = &at
	return true, nil
}

type teamStore struct{ m *MemoryStore }

func (s *teamStore) Create(ctx context.Context, team *models.Team) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if team.ID == "" {
		team.ID = newID()
	}
	if team.CreatedAt.IsZero() {
		team.CreatedAt = time.Now()
	}
	s.m.teams[team.ID] = team
	return nil
}

func (s *teamStore) Get(ctx context.Context, id string) (*models.Team, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	return s.m.teams[id], nil
}

func (s *teamStore) ListByEvent(ctx context.Context, eventID string) ([]*models.Team, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	var result []*models.Team
	for _, t := range s.m.teams {
		if t.EventID == eventID {
			result = append(result, t)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	return result, nil
}

func (s *teamStore) Update(ctx context.Context, team *models.Team) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	s.m.teams[team.ID] = team
	return nil
}

func (s *teamStore) Delete(ctx context.Context, id string) (int, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	deleted := 0
	for itemID, item := range s.m.items {
		if item.TeamID == id {
			delete(s.m.items, itemID)
			deleted++
		}
	}
	delete(s.m.teams, id)
	return deleted, nil
}

type itemStore struct{ m *MemoryStore }

func (s *itemStore) Create(ctx context.Context, item *models.Item) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if item.ID == "" {
		item.ID = newID()
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now()
	}
	s.m.items[item.ID] = item
	return nil
}

func (s *itemStore) Get(ctx context.Context, id string) (*models.Item, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	return s.m.items[id], nil
}

func (s *itemStore) ListByEvent(ctx context.Context, eventID string) ([]*models.Item, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	var result []*models.Item
	for _, i := range s.m.items {
		if i.EventID == eventID {
			result = append(result, i)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	return result, nil
}

func (s *itemStore) ListByTeam(ctx context.Context, teamID string) ([]*models.Item, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	var result []*models.Item
	for _, i := range s.m.items {
		if i.TeamID == teamID {
			result = append(result, i)
		}
	}
	return result, nil
}

func (s *itemStore) Update(ctx context.Context, item *models.Item) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	s.m.items[item.ID] = item
	return nil
}

func (s *itemStore) MarkForReview(ctx context.Context, eventID string, itemIDs []string) (int, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	marked := 0
	for _, id := range itemIDs {
		if item, ok := s.m.items[id]; ok && item.EventID == eventID {
			item.NeedsReview = true
			marked++
		}
	}
	return marked, nil
}

func (s *itemStore) Delete(ctx context.Context, id string) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	delete(s.m.items, id)
	return nil
}

type dayStore struct{ m *MemoryStore }

func (s *dayStore) Create(ctx context.Context, day *models.Day) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if day.ID == "" {
		day.ID = newID()
	}
	s.m.days[day.ID] = day
	return nil
}

func (s *dayStore) ListByEvent(ctx context.Context, eventID string) ([]*models.Day, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	var result []*models.Day
	for _, d := range s.m.days {
		if d.EventID == eventID {
			result = append(result, d)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Date.Before(result[j].Date) })
	return result, nil
}

func (s *dayStore) Delete(ctx context.Context, id string) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	delete(s.m.days, id)
	return nil
}

type assignmentStore struct{ m *MemoryStore }

func (s *assignmentStore) Create(ctx context.Context, a *models.Assignment) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if a.ID == "" {
		a.ID = newID()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}
	if a.Response == "" {
		a.Response = models.ResponsePending
	}
	s.m.assignments[a.ID] = a
	return nil
}

func (s *assignmentStore) Get(ctx context.Context, id string) (*models.Assignment, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	return s.m.assignments[id], nil
}

func (s *assignmentStore) ListByEvent(ctx context.Context, eventID string) ([]*models.Assignment, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	var result []*models.Assignment
	for _, a := range s.m.assignments {
		if a.EventID == eventID {
			result = append(result, a)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	return result, nil
}

func (s *assignmentStore) SetResponse(ctx context.Context, id string, response models.ResponseStatus, at time.Time) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if a, ok := s.m.assignments[id]; ok {
		a.Response = response
		a.RespondedAt = &at
	}
	return nil
}

func (s *assignmentStore) OverrideResponses(ctx context.Context, eventID, personID string, response models.ResponseStatus, at time.Time) (int, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	updated := 0
	for _, a := range s.m.assignments {
		if a.EventID == eventID && a.PersonID == personID && a.Response == models.ResponsePending {
			a.Response = response
			a.RespondedAt = &at
			updated++
		}
	}
	return updated, nil
}

func (s *assignmentStore) Delete(ctx context.Context, id string) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	delete(s.m.assignments, id)
	return nil
}

type personStore struct{ m *MemoryStore }

func (s *personStore) Create(ctx context.Context, p *models.Person) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if p.ID == "" {
		p.ID = newID()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	s.m.people[p.ID] = p
	return nil
}

func (s *personStore) Get(ctx context.Context, id string) (*models.Person, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	return s.m.people[id], nil
}

func (s *personStore) ListByEvent(ctx context.Context, eventID string) ([]*models.Person, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	var result []*models.Person
	for _, p := range s.m.people {
		if p.EventID == eventID {
			result = append(result, p)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	return result, nil
}

func (s *personStore) SetInviteAnchors(ctx context.Context, eventID string, at time.Time) (int, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	stamped := 0
	for _, p := range s.m.people {
		if p.EventID == eventID && p.InviteAnchorAt == nil {
			t := at
			p.InviteAnchorAt = &t
			stamped++
		}
	}
	return stamped, nil
}

type conflictStore struct{ m *MemoryStore }

func (s *conflictStore) Create(ctx context.Context, c *models.Conflict) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if c.ID == "" {
		c.ID = newID()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
	s.m.conflicts[c.ID] = c
	return nil
}

func (s *conflictStore) Get(ctx context.Context, id string) (*models.Conflict, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	return s.m.conflicts[id], nil
}

func (s *conflictStore) ListByEvent(ctx context.Context, eventID string) ([]*models.Conflict, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	var result []*models.Conflict
	for _, c := range s.m.conflicts {
		if c.EventID == eventID {
			result = append(result, c)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		ri, rj := models.SeverityRank(result[i].Severity), models.SeverityRank(result[j].Severity)
		if ri != rj {
			return ri < rj
		}
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

func (s *conflictStore) Update(ctx context.Context, c *models.Conflict) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	s.m.conflicts[c.ID] = c
	return nil
}

type ackStore struct{ m *MemoryStore }

func (s *ackStore) Create(ctx context.Context, a *models.Acknowledgement) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if a.ID == "" {
		a.ID = newID()
	}
	if a.AckedAt.IsZero() {
		a.AckedAt = time.Now()
	}
	s.m.acknowledgements[a.ID] = a
	return nil
}

func (s *ackStore) SupersedeActive(ctx context.Context, conflictID string) (int, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	superseded := 0
	for _, a := range s.m.acknowledgements {
		if a.ConflictID == conflictID && a.Status == models.AckActive {
			a.Status = models.AckSuperseded
			superseded++
		}
	}
	return superseded, nil
}

func (s *ackStore) ListByEvent(ctx context.Context, eventID string) ([]*models.Acknowledgement, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	var result []*models.Acknowledgement
	for _, a := range s.m.acknowledgements {
		if a.EventID == eventID {
			result = append(result, a)
		}
	}
	return result, nil
}

func (s *ackStore) ListActiveByConflict(ctx context.Context, conflictID string) ([]*models.Acknowledgement, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	var result []*models.Acknowledgement
	for _, a := range s.m.acknowledgements {
		if a.ConflictID == conflictID && a.Status == models.AckActive {
			result = append(result, a)
		}
	}
	return result, nil
}

type revisionStore struct{ m *MemoryStore }

func (s *revisionStore) Create(ctx context.Context, r *models.PlanRevision) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	for _, existing := range s.m.revisions {
		if existing.EventID == r.EventID && existing.RevisionNumber == r.RevisionNumber {
			return postgres.ErrDuplicateRevision
		}
	}
	if r.ID == "" {
		r.ID = newID()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
	s.m.revisions[r.ID] = r
	return nil
}

func (s *revisionStore) Get(ctx context.Context, id string) (*models.PlanRevision, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	return s.m.revisions[id], nil
}

func (s *revisionStore) MaxNumber(ctx context.Context, eventID string) (int, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	max := 0
	for _, r := range s.m.revisions {
		if r.EventID == eventID && r.RevisionNumber > max {
			max = r.RevisionNumber
		}
	}
	return max, nil
}

func (s *revisionStore) ListByEvent(ctx context.Context, eventID string) ([]*models.PlanRevision, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	var result []*models.PlanRevision
	for _, r := range s.m.revisions {
		if r.EventID == eventID {
			result = append(result, r)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].RevisionNumber > result[j].RevisionNumber })
	return result, nil
}

type tokenStore struct{ m *MemoryStore }

func (s *tokenStore) Create(ctx context.Context, t *models.AccessToken) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if t.ID == "" {
		t.ID = newID()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}
	s.m.tokens[t.ID] = t
	return nil
}

func (s *tokenStore) GetByHash(ctx context.Context, hash string) (*models.AccessToken, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	for _, t := range s.m.tokens {
		if t.TokenHash == hash {
			return t, nil
		}
	}
	return nil, nil
}

func (s *tokenStore) DeleteByEvent(ctx context.Context, eventID string) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	for id, t := range s.m.tokens {
		if t.EventID == eventID {
			delete(s.m.tokens, id)
		}
	}
	return nil
}

type userStore struct{ m *MemoryStore }

func (s *userStore) Create(ctx context.Context, email, password, name string) (*models.User, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	for _, u := range s.m.users {
		if u.Email == email {
			return nil, postgres.ErrDuplicateKey
		}
	}
	user := &models.User{
		ID:            newID(),
		Email:         email,
		Name:          name,
		BillingStatus: models.BillingFree,
		CreatedAt:     time.Now(),
	}
	s.m.users[user.ID] = user
	s.m.passwords[user.ID] = password
	return user, nil
}

func (s *userStore) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	for _, u := range s.m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, nil
}

func (s *userStore) GetByID(ctx context.Context, id string) (*models.User, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	return s.m.users[id], nil
}

func (s *userStore) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	for _, u := range s.m.users {
		if u.Email == email {
			if password == "" || s.m.passwords[u.ID] != password {
				return nil, postgres.ErrInvalidCredentials
			}
			return u, nil
		}
	}
	return nil, postgres.ErrInvalidCredentials
}

func (s *userStore) SetBillingStatus(ctx context.Context, id string, status models.BillingStatus) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if u, ok := s.m.users[id]; ok {
		u.BillingStatus = status
	}
	return nil
}

type subscriptionStore struct{ m *MemoryStore }

func (s *subscriptionStore) Upsert(ctx context.Context, sub *models.Subscription) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if sub.ID == "" {
		sub.ID = newID()
	}
	sub.UpdatedAt = time.Now()
	s.m.subscriptions[sub.UserID] = sub
	return nil
}

func (s *subscriptionStore) GetByUserID(ctx context.Context, userID string) (*models.Subscription, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	return s.m.subscriptions[userID], nil
}

type inviteEventStore struct{ m *MemoryStore }

func (s *inviteEventStore) Create(ctx context.Context, e *models.InviteEvent) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if e.ID == "" {
		e.ID = newID()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	s.m.inviteEvents = append(s.m.inviteEvents, e)
	return nil
}

func (s *inviteEventStore) ListByEvent(ctx context.Context, eventID string) ([]*models.InviteEvent, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	var result []*models.InviteEvent
	for _, e := range s.m.inviteEvents {
		if e.EventID == eventID {
			result = append(result, e)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	return result, nil
}

func (s *inviteEventStore) CountSince(ctx context.Context, eventID, personID, eventType string, since time.Time) (int, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	count := 0
	for _, e := range s.m.inviteEvents {
		if e.EventID != eventID || e.Type != eventType || e.CreatedAt.Before(since) {
			continue
		}
		if e.PersonID == nil || *e.PersonID != personID {
			continue
		}
		count++
	}
	return count, nil
}

type magicLinkStore struct{ m *MemoryStore }

func (s *magicLinkStore) Create(ctx context.Context, l *models.MagicLink) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	if l.ID == "" {
		l.ID = newID()
	}
	if l.CreatedAt.IsZero() {
		l.CreatedAt = time.Now()
	}
	s.m.magicLinks[l.ID] = l
	return nil
}

func (s *magicLinkStore) GetByHash(ctx context.Context, hash string) (*models.MagicLink, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	for _, l := range s.m.magicLinks {
		if l.TokenHash == hash {
			return l, nil
		}
	}
	return nil, nil
}

func (s *magicLinkStore) Consume(ctx context.Context, id string, at time.Time) (bool, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	l, ok := s.m.magicLinks[id]
	if !ok || l.ConsumedAt != nil {
		return false, nil
	}
	l.ConsumedAt = &at
	return true, nil
}

func (s *magicLinkStore) CountRecent(ctx context.Context, email string, since time.Time) (int, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	count := 0
	for _, l := range s.m.magicLinks {
		if l.Email == email && !l.CreatedAt.Before(since) {
			count++
		}
	}
	return count, nil
}

type settingsStore struct{ m *MemoryStore }

func (s *settingsStore) Get(ctx context.Context, key string) (string, error) {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	return s.m.settings[key], nil
}

func (s *settingsStore) Set(ctx context.Context, key, value string) error {
	s.m.mu.Lock()
	defer s.m.mu.Unlock()
	s.m.settings[key] = value
	return nil
}
