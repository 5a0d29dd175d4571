package impl

import (
	"bytes"
	"cmp"
	"context"
	"io"
	"log/slog"
	"maps"
	"path"
	"slices"
	"strings"
	"sync"
	"time"

	"beatmarket/config"
	"beatmarket/internal/domain/entity"
	domainerrors "beatmarket/internal/domain/errors"
	"beatmarket/internal/domain/repository"
	"beatmarket/internal/domain/service"
	"beatmarket/internal/errors"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func newDiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestConfig() *config.Config {
	cfg := &config.Config{
		Auth: &config.AuthConfig{
			BcryptCost:     4,
			AccessTokenTTL: time.Hour,
			AdminUsername:  "admin0",
		},
		Marketplace: &config.MarketplaceConfig{
			PlatformUsername: "platform",
			CommissionRate:   decimal.RequireFromString("0.03"),
			PopularLimit:     20,
		},
		Media: &config.MediaConfig{
			BucketURL:     "mem://",
			MaxUploadSize: 1024,
		},
	}
	cfg.SecretKey.Access = "test-secret"

	return cfg
}

// memState is the full content of the fake store.
type memState struct {
	users    map[uuid.UUID]entity.User
	beats    map[uuid.UUID]entity.Beat
	ratings  map[uuid.UUID]entity.Rating
	ledger   []entity.Transaction
	comments map[uuid.UUID]entity.Comment
}

func (s *memState) clone() *memState {
	return &memState{
		users:    maps.Clone(s.users),
		beats:    maps.Clone(s.beats),
		ratings:  maps.Clone(s.ratings),
		ledger:   slices.Clone(s.ledger),
		comments: maps.Clone(s.comments),
	}
}

// memStore is an in-memory store whose transactions are fully serialised and
// rolled back by restoring a snapshot. Unique indexes are enforced on write.
type memStore struct {
	mu    sync.Mutex
	state *memState

	// hideExistingPurchases makes LedgerRepo.Exists always report false so the
	// unique index is the only thing preventing a duplicate purchase.
	hideExistingPurchases bool
	failAdjust            map[uuid.UUID]error
	executions            int
	beatLocks             []beatLock
}

type beatLock struct {
	beatID   uuid.UUID
	strength string
}

func newMemStore() *memStore {
	return &memStore{
		state: &memState{
			users:    map[uuid.UUID]entity.User{},
			beats:    map[uuid.UUID]entity.Beat{},
			ratings:  map[uuid.UUID]entity.Rating{},
			comments: map[uuid.UUID]entity.Comment{},
		},
		failAdjust: map[uuid.UUID]error{},
	}
}

func (m *memStore) Execute(ctx context.Context, fn func(txRepoFactory repository.RepositoryFactory) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.executions++
	snapshot := m.state.clone()
	if err := fn(&memFactory{store: m, inTx: true}); err != nil {
		m.state = snapshot

		return err
	}

	return nil
}

// factory returns repositories that lock per call, as used outside transactions.
func (m *memStore) factory() *memFactory {
	return &memFactory{store: m}
}

func (m *memStore) with(inTx bool, fn func(s *memState)) {
	if !inTx {
		m.mu.Lock()
		defer m.mu.Unlock()
	}
	fn(m.state)
}

// --- seeding and inspection helpers ---

func (m *memStore) addUser(username string, balance string) *entity.User {
	u := entity.User{
		ID:       uuid.New(),
		Username: username,
		Balance:  decimal.RequireFromString(balance),
		Role:     entity.RoleUser,
	}
	m.with(false, func(s *memState) { s.users[u.ID] = u })

	return &u
}

func (m *memStore) addBeat(owner uuid.UUID, price string, createdAt time.Time) *entity.Beat {
	b := entity.Beat{
		ID:          uuid.New(),
		Title:       "beat " + price,
		Price:       decimal.RequireFromString(price),
		OwnerUserID: owner,
		CreatedAt:   createdAt,
		UpdatedAt:   createdAt,
	}
	m.with(false, func(s *memState) { s.beats[b.ID] = b })

	return &b
}

func (m *memStore) addRating(beatID, userID uuid.UUID, value int) {
	r := entity.Rating{ID: uuid.New(), BeatID: beatID, UserID: userID, Value: value}
	m.with(false, func(s *memState) { s.ratings[r.ID] = r })
}

func (m *memStore) addComment(beatID, userID uuid.UUID, text string) *entity.Comment {
	c := entity.Comment{ID: uuid.New(), BeatID: beatID, UserID: userID, Text: text, CreatedAt: time.Now()}
	m.with(false, func(s *memState) { s.comments[c.ID] = c })

	return &c
}

func (m *memStore) balance(id uuid.UUID) decimal.Decimal {
	var b decimal.Decimal
	m.with(false, func(s *memState) { b = s.users[id].Balance })

	return b
}

func (m *memStore) ledgerLen() int {
	var n int
	m.with(false, func(s *memState) { n = len(s.ledger) })

	return n
}

func (m *memStore) ratingsFor(beatID uuid.UUID) []entity.Rating {
	var out []entity.Rating
	m.with(false, func(s *memState) {
		for _, r := range s.ratings {
			if r.BeatID == beatID {
				out = append(out, r)
			}
		}
	})

	return out
}

func (m *memStore) commentsFor(beatID uuid.UUID) int {
	var n int
	m.with(false, func(s *memState) {
		for _, c := range s.comments {
			if c.BeatID == beatID {
				n++
			}
		}
	})

	return n
}

func (m *memStore) hasBeat(id uuid.UUID) bool {
	var ok bool
	m.with(false, func(s *memState) { _, ok = s.beats[id] })

	return ok
}

func paginate[T any](items []T, page entity.Page) []T {
	start := min(page.Offset(), len(items))
	end := min(start+page.Limit, len(items))

	return items[start:end]
}

// --- factory ---

type memFactory struct {
	store *memStore
	inTx  bool
}

func (f *memFactory) UserRepo() repository.UserRepository       { return &memUserRepo{f} }
func (f *memFactory) BeatRepo() repository.BeatRepository       { return &memBeatRepo{f} }
func (f *memFactory) RatingRepo() repository.RatingRepository   { return &memRatingRepo{f} }
func (f *memFactory) LedgerRepo() repository.LedgerRepository   { return &memLedgerRepo{f} }
func (f *memFactory) CommentRepo() repository.CommentRepository { return &memCommentRepo{f} }

func (f *memFactory) with(fn func(s *memState)) {
	f.store.with(f.inTx, fn)
}

// --- users ---

type memUserRepo struct{ *memFactory }

func (r *memUserRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.User, error) {
	var (
		u  entity.User
		ok bool
	)
	r.with(func(s *memState) { u, ok = s.users[id] })
	if !ok {
		return nil, repository.ErrUserNotFound
	}

	return &u, nil
}

func (r *memUserRepo) FindByUsername(_ context.Context, username string) (*entity.User, error) {
	var found *entity.User
	r.with(func(s *memState) {
		for _, u := range s.users {
			if u.Username == username {
				found = &u

				return
			}
		}
	})
	if found == nil {
		return nil, repository.ErrUserNotFound
	}

	return found, nil
}

func (r *memUserRepo) LockByIDs(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]*entity.User, error) {
	out := make(map[uuid.UUID]*entity.User, len(ids))
	r.with(func(s *memState) {
		for _, id := range ids {
			if u, ok := s.users[id]; ok {
				out[id] = &u
			}
		}
	})

	return out, nil
}

func (r *memUserRepo) Create(_ context.Context, user *entity.User) error {
	var err error
	r.with(func(s *memState) {
		for _, u := range s.users {
			if u.Username == user.Username {
				err = repository.ErrUsernameTaken

				return
			}
		}
		s.users[user.ID] = *user
	})

	return err
}

func (r *memUserRepo) UpdateProfile(_ context.Context, user *entity.User) error {
	var err error
	r.with(func(s *memState) {
		u, ok := s.users[user.ID]
		if !ok {
			err = repository.ErrUserNotFound

			return
		}
		u.Bio = user.Bio
		u.PhotoRef = user.PhotoRef
		s.users[user.ID] = u
	})

	return err
}

func (r *memUserRepo) AdjustBalance(_ context.Context, id uuid.UUID, delta decimal.Decimal) (decimal.Decimal, error) {
	var (
		balance decimal.Decimal
		err     error
	)
	r.with(func(s *memState) {
		if injected := r.store.failAdjust[id]; injected != nil {
			err = injected

			return
		}
		u, ok := s.users[id]
		if !ok {
			err = repository.ErrUserNotFound

			return
		}
		next := u.Balance.Add(delta)
		if next.IsNegative() {
			err = errors.New("balance check constraint violated")

			return
		}
		if next.GreaterThan(entity.MaxAmount) {
			err = domainerrors.ErrInvalidAmount.WithDetails("balance would exceed the maximum amount")

			return
		}
		u.Balance = next
		s.users[id] = u
		balance = next
	})

	return balance, err
}

// --- beats ---

type memBeatRepo struct{ *memFactory }

func (r *memBeatRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.Beat, error) {
	var (
		b  entity.Beat
		ok bool
	)
	r.with(func(s *memState) { b, ok = s.beats[id] })
	if !ok {
		return nil, repository.ErrBeatNotFound
	}

	return &b, nil
}

func (r *memBeatRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.Beat, error) {
	return r.findLocked(ctx, id, "update")
}

func (r *memBeatRepo) FindByIDForShare(ctx context.Context, id uuid.UUID) (*entity.Beat, error) {
	return r.findLocked(ctx, id, "share")
}

// findLocked records the lock so tests can assert which row locks a transaction took.
func (r *memBeatRepo) findLocked(ctx context.Context, id uuid.UUID, strength string) (*entity.Beat, error) {
	if !r.inTx {
		return nil, errors.New("row lock taken outside a transaction")
	}
	r.store.beatLocks = append(r.store.beatLocks, beatLock{beatID: id, strength: strength})

	return r.FindByID(ctx, id)
}

func (r *memBeatRepo) List(_ context.Context, filter entity.BeatFilter, page entity.Page) ([]*entity.Beat, int64, error) {
	var matched []*entity.Beat
	r.with(func(s *memState) {
		for _, b := range s.beats {
			if filter.Search != "" && !strings.Contains(strings.ToLower(b.Title), strings.ToLower(filter.Search)) {
				continue
			}
			if filter.MinPrice != nil && b.Price.LessThan(*filter.MinPrice) {
				continue
			}
			if filter.MaxPrice != nil && b.Price.GreaterThan(*filter.MaxPrice) {
				continue
			}
			if filter.OwnerUserID != nil && b.OwnerUserID != *filter.OwnerUserID {
				continue
			}
			if len(filter.Tags) > 0 && !slices.ContainsFunc(b.Tags, func(t string) bool { return slices.Contains(filter.Tags, t) }) {
				continue
			}
			matched = append(matched, &b)
		}
	})
	slices.SortFunc(matched, func(a, b *entity.Beat) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}

		return compareUUID(a.ID, b.ID)
	})

	return paginate(matched, page), int64(len(matched)), nil
}

func (r *memBeatRepo) Create(_ context.Context, beat *entity.Beat) error {
	r.with(func(s *memState) { s.beats[beat.ID] = *beat })

	return nil
}

func (r *memBeatRepo) Update(_ context.Context, beat *entity.Beat) error {
	var err error
	r.with(func(s *memState) {
		if _, ok := s.beats[beat.ID]; !ok {
			err = repository.ErrBeatNotFound

			return
		}
		s.beats[beat.ID] = *beat
	})

	return err
}

func (r *memBeatRepo) Delete(_ context.Context, id uuid.UUID) error {
	var err error
	r.with(func(s *memState) {
		if _, ok := s.beats[id]; !ok {
			err = repository.ErrBeatNotFound

			return
		}
		delete(s.beats, id)
	})

	return err
}

// --- ratings ---

type memRatingRepo struct{ *memFactory }

func (r *memRatingRepo) Upsert(_ context.Context, rating *entity.Rating) (*entity.Rating, error) {
	var stored entity.Rating
	r.with(func(s *memState) {
		for id, existing := range s.ratings {
			if existing.BeatID == rating.BeatID && existing.UserID == rating.UserID {
				existing.Value = rating.Value
				existing.UpdatedAt = rating.UpdatedAt
				s.ratings[id] = existing
				stored = existing

				return
			}
		}
		s.ratings[rating.ID] = *rating
		stored = *rating
	})

	return &stored, nil
}

func (r *memRatingRepo) Find(_ context.Context, beatID, userID uuid.UUID) (*entity.Rating, error) {
	var found *entity.Rating
	r.with(func(s *memState) {
		for _, existing := range s.ratings {
			if existing.BeatID == beatID && existing.UserID == userID {
				found = &existing

				return
			}
		}
	})
	if found == nil {
		return nil, repository.ErrRatingNotFound
	}

	return found, nil
}

func (r *memRatingRepo) ListByBeat(_ context.Context, beatID uuid.UUID) ([]*entity.Rating, error) {
	var out []*entity.Rating
	r.with(func(s *memState) {
		for _, existing := range s.ratings {
			if existing.BeatID == beatID {
				out = append(out, &existing)
			}
		}
	})

	return out, nil
}

func (r *memRatingRepo) Stats(_ context.Context, beatID uuid.UUID) (sum, count int64, err error) {
	r.with(func(s *memState) {
		for _, existing := range s.ratings {
			if existing.BeatID == beatID {
				sum += int64(existing.Value)
				count++
			}
		}
	})

	return sum, count, nil
}

func (r *memRatingRepo) StatsForBeatsCreatedBetween(_ context.Context, since, until time.Time) ([]entity.BeatRatingStats, error) {
	var out []entity.BeatRatingStats
	r.with(func(s *memState) {
		for _, b := range s.beats {
			if b.CreatedAt.Before(since) || b.CreatedAt.After(until) {
				continue
			}
			stats := entity.BeatRatingStats{Beat: &b}
			for _, rating := range s.ratings {
				if rating.BeatID == b.ID {
					stats.Sum += int64(rating.Value)
					stats.Count++
				}
			}
			out = append(out, stats)
		}
	})
	slices.SortFunc(out, func(a, b entity.BeatRatingStats) int {
		if c := b.Beat.CreatedAt.Compare(a.Beat.CreatedAt); c != 0 {
			return c
		}

		return compareUUID(a.Beat.ID, b.Beat.ID)
	})

	return out, nil
}

func (r *memRatingRepo) ListRatedByUser(_ context.Context, userID uuid.UUID, search string, score int, page entity.Page) ([]*entity.RatedBeat, int64, error) {
	type row struct {
		rated *entity.RatedBeat
		at    time.Time
	}
	var rows []row
	r.with(func(s *memState) {
		for _, rating := range s.ratings {
			if rating.UserID != userID || (score != 0 && rating.Value != score) {
				continue
			}
			b, ok := s.beats[rating.BeatID]
			if !ok || (search != "" && !strings.Contains(strings.ToLower(b.Title), strings.ToLower(search))) {
				continue
			}
			rows = append(rows, row{rated: &entity.RatedBeat{Beat: &b, UserScore: rating.Value}, at: rating.UpdatedAt})
		}
	})
	slices.SortFunc(rows, func(a, b row) int { return b.at.Compare(a.at) })

	out := make([]*entity.RatedBeat, 0, len(rows))
	for _, rw := range rows {
		out = append(out, rw.rated)
	}

	return paginate(out, page), int64(len(out)), nil
}

func (r *memRatingRepo) DeleteByBeat(_ context.Context, beatID uuid.UUID) error {
	r.with(func(s *memState) {
		for id, existing := range s.ratings {
			if existing.BeatID == beatID {
				delete(s.ratings, id)
			}
		}
	})

	return nil
}

// --- ledger ---

type memLedgerRepo struct{ *memFactory }

func (r *memLedgerRepo) Create(_ context.Context, tx *entity.Transaction) error {
	var err error
	r.with(func(s *memState) {
		for _, existing := range s.ledger {
			if existing.BeatID == tx.BeatID && existing.BuyerUserID == tx.BuyerUserID {
				err = repository.ErrDuplicatePurchase

				return
			}
		}
		s.ledger = append(s.ledger, *tx)
	})

	return err
}

func (r *memLedgerRepo) Exists(_ context.Context, beatID, buyerID uuid.UUID) (bool, error) {
	if r.store.hideExistingPurchases {
		return false, nil
	}

	var found bool
	r.with(func(s *memState) {
		found = slices.ContainsFunc(s.ledger, func(t entity.Transaction) bool {
			return t.BeatID == beatID && t.BuyerUserID == buyerID
		})
	})

	return found, nil
}

func (r *memLedgerRepo) CountForBeat(_ context.Context, beatID uuid.UUID) (int64, error) {
	var n int64
	r.with(func(s *memState) {
		for _, t := range s.ledger {
			if t.BeatID == beatID {
				n++
			}
		}
	})

	return n, nil
}

func (r *memLedgerRepo) ListForUser(_ context.Context, userID uuid.UUID, kind entity.TransactionKind, page entity.Page) ([]*entity.TransactionView, int64, error) {
	var out []*entity.TransactionView
	r.with(func(s *memState) {
		for _, t := range s.ledger {
			counterparty := t.SellerUserID
			if kind == entity.TransactionKindPurchases && t.BuyerUserID != userID {
				continue
			}
			if kind == entity.TransactionKindSales {
				if t.SellerUserID != userID {
					continue
				}
				counterparty = t.BuyerUserID
			}
			out = append(out, &entity.TransactionView{
				Transaction:          t,
				BeatTitle:            s.beats[t.BeatID].Title,
				CounterpartyUsername: s.users[counterparty].Username,
			})
		}
	})
	slices.SortFunc(out, func(a, b *entity.TransactionView) int { return b.CreatedAt.Compare(a.CreatedAt) })

	return paginate(out, page), int64(len(out)), nil
}

// --- comments ---

type memCommentRepo struct{ *memFactory }

func (r *memCommentRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.Comment, error) {
	var (
		c  entity.Comment
		ok bool
	)
	r.with(func(s *memState) { c, ok = s.comments[id] })
	if !ok {
		return nil, repository.ErrCommentNotFound
	}

	return &c, nil
}

func (r *memCommentRepo) ListByBeat(_ context.Context, beatID uuid.UUID, page entity.Page) ([]*entity.Comment, int64, error) {
	var out []*entity.Comment
	r.with(func(s *memState) {
		for _, c := range s.comments {
			if c.BeatID == beatID {
				out = append(out, &c)
			}
		}
	})
	slices.SortFunc(out, func(a, b *entity.Comment) int {
		return cmp.Or(b.CreatedAt.Compare(a.CreatedAt), compareUUID(a.ID, b.ID))
	})

	return paginate(out, page), int64(len(out)), nil
}

func (r *memCommentRepo) Create(_ context.Context, comment *entity.Comment) error {
	r.with(func(s *memState) { s.comments[comment.ID] = *comment })

	return nil
}

func (r *memCommentRepo) UpdateText(_ context.Context, id uuid.UUID, text string) (*entity.Comment, error) {
	var (
		c  entity.Comment
		ok bool
	)
	r.with(func(s *memState) {
		c, ok = s.comments[id]
		if ok {
			c.Text = text
			s.comments[id] = c
		}
	})
	if !ok {
		return nil, repository.ErrCommentNotFound
	}

	return &c, nil
}

func (r *memCommentRepo) Delete(_ context.Context, id uuid.UUID) error {
	var ok bool
	r.with(func(s *memState) {
		_, ok = s.comments[id]
		delete(s.comments, id)
	})
	if !ok {
		return repository.ErrCommentNotFound
	}

	return nil
}

func (r *memCommentRepo) DeleteByBeat(_ context.Context, beatID uuid.UUID) error {
	r.with(func(s *memState) {
		for id, c := range s.comments {
			if c.BeatID == beatID {
				delete(s.comments, id)
			}
		}
	})

	return nil
}

// --- service fakes ---

type fakeHasher struct{}

func (fakeHasher) Hash(password string) (string, error) { return "hashed:" + password, nil }
func (fakeHasher) Check(password, hash string) bool     { return hash == "hashed:"+password }

type fakeTokenService struct{}

func (fakeTokenService) GenerateAccessToken(userID uuid.UUID, roles []string) (string, error) {
	return "token:" + userID.String() + ":" + strings.Join(roles, ","), nil
}

func (fakeTokenService) ValidateToken(_ string) (*service.Claims, error) {
	return nil, jwt.ErrTokenMalformed
}

type fakeMediaStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	deleted []string
}

func newFakeMediaStore() *fakeMediaStore {
	return &fakeMediaStore{objects: map[string][]byte{}}
}

func (s *fakeMediaStore) Put(_ context.Context, prefix, filename, contentType string, r io.Reader) (*service.MediaObject, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	key := path.Join(prefix, uuid.NewString()+path.Ext(filename))

	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = data

	return &service.MediaObject{Key: key, ContentType: contentType, Size: int64(len(data))}, nil
}

func (s *fakeMediaStore) Open(_ context.Context, key string) (io.ReadCloser, *service.MediaObject, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, ok := s.objects[key]
	if !ok {
		return nil, nil, service.ErrMediaNotFound
	}

	return io.NopCloser(bytes.NewReader(data)), &service.MediaObject{Key: key, Size: int64(len(data))}, nil
}

func (s *fakeMediaStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.objects, key)
	s.deleted = append(s.deleted, key)

	return nil
}

func (s *fakeMediaStore) Close() error { return nil }

type fakeQRCode struct{}

func (fakeQRCode) GenerateBeatShareQR(beatID uuid.UUID) ([]byte, error) {
	return []byte("png:" + beatID.String()), nil
}

func (fakeQRCode) ParseBeatShareQR(qrData string) (uuid.UUID, error) {
	return uuid.Parse(strings.TrimPrefix(qrData, "png:"))
}

type fakeCache struct {
	mu          sync.Mutex
	entries     map[entity.Period][]*entity.PopularBeat
	invalidated int
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: map[entity.Period][]*entity.PopularBeat{}}
}

func (c *fakeCache) Get(_ context.Context, period entity.Period) ([]*entity.PopularBeat, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ranking, ok := c.entries[period]

	return ranking, ok, nil
}

func (c *fakeCache) Set(_ context.Context, period entity.Period, ranking []*entity.PopularBeat) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[period] = ranking

	return nil
}

func (c *fakeCache) Invalidate(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	clear(c.entries)
	c.invalidated++

	return nil
}

func (c *fakeCache) Close() error { return nil }

type fakePublisher struct {
	mu     sync.Mutex
	events []*service.PurchaseCompletedEvent
	err    error
}

func (p *fakePublisher) PublishPurchaseCompleted(_ context.Context, event *service.PurchaseCompletedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, event)

	return nil
}

func (p *fakePublisher) Close() error { return nil }

func (p *fakePublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	return len(p.events)
}
