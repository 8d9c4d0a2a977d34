package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"github.com/Kerhoff/BlindList/internal/identity"
	"github.com/Kerhoff/BlindList/internal/metrics"
	"github.com/Kerhoff/BlindList/internal/models"
	"github.com/Kerhoff/BlindList/internal/notify"
	"github.com/Kerhoff/BlindList/internal/notify/mocks"
	"github.com/Kerhoff/BlindList/internal/ratelimit"
	"github.com/Kerhoff/BlindList/internal/repository/memory"
	"github.com/Kerhoff/BlindList/internal/token"
	"github.com/Kerhoff/BlindList/pkg/logger"
)

const frontend = "https://blind.example"

type recordingQueue struct {
	mu     sync.Mutex
	msgs   []notify.Message
	reject bool
}

func (q *recordingQueue) Enqueue(msg notify.Message) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.reject {
		return false
	}
	q.msgs = append(q.msgs, msg)
	return true
}

func (q *recordingQueue) messages() []notify.Message {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]notify.Message(nil), q.msgs...)
}

type ServiceSuite struct {
	suite.Suite
	ctrl    *gomock.Controller
	store   *memory.Store
	sender  *mocks.MockSender
	queue   *recordingQueue
	metrics *metrics.Metrics
	clock   time.Time
	svc     *Service
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.store = memory.NewStore()
	s.sender = mocks.NewMockSender(s.ctrl)
	s.queue = &recordingQueue{}
	s.metrics = metrics.NewNop()
	s.clock = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.svc = s.newService(testConfig(), nil, nil)
}

func testConfig() Config {
	return Config{
		FrontendURL: frontend,
		RecoveryTTL: time.Hour,
		RateLimit:   RateLimits{Window: time.Minute},
	}
}

func (s *ServiceSuite) newService(cfg Config, tokens *token.Generator, limiter ratelimit.Limiter) *Service {
	svc, err := New(cfg, Deps{
		Lists:   s.store.Lists(),
		Items:   s.store.Items(),
		Tokens:  tokens,
		Sender:  s.sender,
		Queue:   s.queue,
		Limiter: limiter,
		Metrics: s.metrics,
		Logger:  logger.Discard(),
	})
	s.Require().NoError(err)
	svc.now = func() time.Time { return s.clock }
	return svc
}

func (s *ServiceSuite) createList(name string) *models.CapabilityPair {
	pair, err := s.svc.CreateList(context.Background(), name)
	s.Require().NoError(err)
	return pair
}

func (s *ServiceSuite) addItem(creatorToken, name string) *models.CreatorItem {
	item, err := s.svc.AddItem(context.Background(), creatorToken, models.ItemFields{Name: &name})
	s.Require().NoError(err)
	return item
}

func (s *ServiceSuite) bind(creatorToken, email string) {
	s.sender.EXPECT().
		Send(gomock.Any(), gomock.Any(), notify.KindListLinks, gomock.Any()).
		Return(nil)
	res, err := s.svc.BindEmail(context.Background(), creatorToken, email)
	s.Require().NoError(err)
	s.Require().Empty(res.Warning)
}

// lastRecoveryToken pulls the raw token out of the most recent queued link.
func (s *ServiceSuite) lastRecoveryToken() string {
	msgs := s.queue.messages()
	s.Require().NotEmpty(msgs)
	url := msgs[len(msgs)-1].Params.RecoveryURL
	s.Require().True(strings.HasPrefix(url, frontend+"/verify-email/"), url)
	return strings.TrimPrefix(url, frontend+"/verify-email/")
}

func strPtr(s string) *string { return &s }

func floatPtr(f float64) *float64 { return &f }

// =============================================================================
// Constructor
// =============================================================================

func (s *ServiceSuite) TestNew() {
	s.Run("missing repositories", func() {
		_, err := New(testConfig(), Deps{Sender: s.sender, Queue: s.queue, Logger: logger.Discard()})
		s.Require().Error(err)
		s.Contains(err.Error(), "repositories are required")
	})

	s.Run("non-positive recovery TTL", func() {
		cfg := testConfig()
		cfg.RecoveryTTL = 0
		_, err := New(cfg, Deps{
			Lists: s.store.Lists(), Items: s.store.Items(),
			Sender: s.sender, Queue: s.queue, Logger: logger.Discard(),
		})
		s.Require().Error(err)
	})
}

// =============================================================================
// List creation
// =============================================================================

func (s *ServiceSuite) TestCreateList() {
	ctx := context.Background()

	s.Run("returns two distinct well-formed tokens", func() {
		pair := s.createList("Birthday")
		s.NotEqual(pair.CreatorToken, pair.BuyerToken)
		s.True(token.ValidCapabilityToken(pair.CreatorToken))
		s.True(token.ValidCapabilityToken(pair.BuyerToken))
		s.Equal(frontend+"/list/creator/"+pair.CreatorToken, pair.CreatorURL)
		s.Equal(frontend+"/list/buyer/"+pair.BuyerToken, pair.BuyerURL)
	})

	s.Run("tokens never repeat across lists", func() {
		seen := make(map[string]bool)
		for i := 0; i < 50; i++ {
			pair := s.createList("list")
			s.False(seen[pair.CreatorToken])
			s.False(seen[pair.BuyerToken])
			seen[pair.CreatorToken] = true
			seen[pair.BuyerToken] = true
		}
	})

	s.Run("blank name is rejected", func() {
		_, err := s.svc.CreateList(ctx, "   ")
		s.ErrorIs(err, ErrInvalidInput)
		var inputErr *InputError
		s.Require().ErrorAs(err, &inputErr)
		s.Equal("list name is required", inputErr.Msg)
	})

	s.Run("overlong name is rejected", func() {
		_, err := s.svc.CreateList(ctx, strings.Repeat("x", MaxListNameLength+1))
		s.ErrorIs(err, ErrInvalidInput)
	})

	s.Run("name is trimmed", func() {
		pair := s.createList("  Xmas  ")
		view, err := s.svc.GetCreatorView(ctx, pair.CreatorToken)
		s.Require().NoError(err)
		s.Equal("Xmas", view.Name)
		s.Empty(view.Items)
	})
}

func (s *ServiceSuite) TestCreateListRetriesOnCollision() {
	// The first attempt draws identical creator and buyer tokens, which the
	// store rejects as a conflict; the second attempt draws distinct ones.
	seq := bytes.Join([][]byte{
		bytes.Repeat([]byte{0}, token.CapabilityLength),
		bytes.Repeat([]byte{0}, token.CapabilityLength),
		bytes.Repeat([]byte{1}, token.CapabilityLength),
		bytes.Repeat([]byte{2}, token.CapabilityLength),
	}, nil)
	svc := s.newService(testConfig(), token.NewGenerator(bytes.NewReader(seq)), nil)

	pair, err := svc.CreateList(context.Background(), "Retry")
	s.Require().NoError(err)
	s.Equal(strings.Repeat("B", token.CapabilityLength), pair.CreatorToken)
	s.Equal(strings.Repeat("C", token.CapabilityLength), pair.BuyerToken)
	s.Equal(1.0, testutil.ToFloat64(s.metrics.TokenCollisions))
}

func (s *ServiceSuite) TestCreateListGivesUpAfterRepeatedCollisions() {
	zeros := bytes.Repeat([]byte{0}, token.CapabilityLength*2*createAttempts)
	svc := s.newService(testConfig(), token.NewGenerator(bytes.NewReader(zeros)), nil)

	_, err := svc.CreateList(context.Background(), "Unlucky")
	s.ErrorIs(err, ErrDependency)
	s.NotErrorIs(err, ErrInvalidInput)
	s.Equal(float64(createAttempts), testutil.ToFloat64(s.metrics.TokenCollisions))
}

func (s *ServiceSuite) TestCreateListEntropyFailure() {
	svc := s.newService(testConfig(), token.NewGenerator(bytes.NewReader(nil)), nil)

	_, err := svc.CreateList(context.Background(), "No entropy")
	s.ErrorIs(err, ErrDependency)
	s.ErrorIs(err, token.ErrEntropy)
}

// =============================================================================
// Capability separation
// =============================================================================

func (s *ServiceSuite) TestCapabilitySeparation() {
	ctx := context.Background()
	pair := s.createList("Separation")
	item := s.addItem(pair.CreatorToken, "Book")

	s.Run("resolve reports each token's kind", func() {
		c, err := s.svc.Resolve(ctx, pair.CreatorToken)
		s.Require().NoError(err)
		s.Equal(models.CapabilityCreator, c.Kind)

		c, err = s.svc.Resolve(ctx, pair.BuyerToken)
		s.Require().NoError(err)
		s.Equal(models.CapabilityBuyer, c.Kind)
		s.Equal(c.List.CreatorToken, pair.CreatorToken)

		c, err = s.svc.Resolve(ctx, "not-a-token")
		s.Require().NoError(err)
		s.Equal(models.CapabilityNone, c.Kind)
		s.Nil(c.List)
	})

	s.Run("buyer token cannot act as creator", func() {
		_, err := s.svc.GetCreatorView(ctx, pair.BuyerToken)
		s.ErrorIs(err, ErrNotFound)
		_, err = s.svc.AddItem(ctx, pair.BuyerToken, models.ItemFields{Name: strPtr("x")})
		s.ErrorIs(err, ErrNotFound)
		_, err = s.svc.EditItem(ctx, pair.BuyerToken, item.ID, models.ItemFields{Name: strPtr("y")})
		s.ErrorIs(err, ErrNotFound)
		s.ErrorIs(s.svc.DeleteItem(ctx, pair.BuyerToken, item.ID), ErrNotFound)
		_, err = s.svc.BindEmail(ctx, pair.BuyerToken, "a@example.com")
		s.ErrorIs(err, ErrNotFound)
	})

	s.Run("creator token cannot act as buyer", func() {
		_, err := s.svc.GetBuyerView(ctx, pair.CreatorToken)
		s.ErrorIs(err, ErrNotFound)
		_, err = s.svc.TogglePurchased(ctx, pair.CreatorToken, item.ID)
		s.ErrorIs(err, ErrNotFound)
	})

	s.Run("unknown and malformed tokens look the same as wrong-kind tokens", func() {
		for _, tok := range []string{"", "short", strings.Repeat("Z", token.CapabilityLength), "../../etc/passwd"} {
			_, err := s.svc.GetCreatorView(ctx, tok)
			s.ErrorIs(err, ErrNotFound, tok)
			_, err = s.svc.GetBuyerView(ctx, tok)
			s.ErrorIs(err, ErrNotFound, tok)
		}
	})

	s.Run("items are scoped to their list", func() {
		other := s.createList("Other")
		_, err := s.svc.EditItem(ctx, other.CreatorToken, item.ID, models.ItemFields{Name: strPtr("stolen")})
		s.ErrorIs(err, ErrNotFound)
		s.ErrorIs(s.svc.DeleteItem(ctx, other.CreatorToken, item.ID), ErrNotFound)
		_, err = s.svc.TogglePurchased(ctx, other.BuyerToken, item.ID)
		s.ErrorIs(err, ErrNotFound)
	})

	s.Run("deleted list tokens stop resolving", func() {
		doomed := s.createList("Doomed")
		c, err := s.svc.Resolve(ctx, doomed.CreatorToken)
		s.Require().NoError(err)
		_, err = s.svc.AddItem(ctx, doomed.CreatorToken, models.ItemFields{Name: strPtr("Lamp")})
		s.Require().NoError(err)
		s.Require().Equal(1, s.store.ItemCount(c.List.ID))

		s.store.DeleteList(c.List.ID)
		s.Equal(0, s.store.ItemCount(c.List.ID))

		_, err = s.svc.GetCreatorView(ctx, doomed.CreatorToken)
		s.ErrorIs(err, ErrNotFound)
		_, err = s.svc.GetBuyerView(ctx, doomed.BuyerToken)
		s.ErrorIs(err, ErrNotFound)
	})
}

// =============================================================================
// Items and purchase blindness
// =============================================================================

func (s *ServiceSuite) TestPriceRoundsToCents() {
	ctx := context.Background()
	pair := s.createList("Cents")

	item, err := s.svc.AddItem(ctx, pair.CreatorToken, models.ItemFields{Name: strPtr("Pen"), Price: floatPtr(4.321)})
	s.Require().NoError(err)
	s.Require().NotNil(item.Price)
	s.Equal(4.32, *item.Price)

	edited, err := s.svc.EditItem(ctx, pair.CreatorToken, item.ID, models.ItemFields{Price: floatPtr(19.999)})
	s.Require().NoError(err)
	s.Equal(20.0, *edited.Price)
}

func (s *ServiceSuite) TestItemLifecycle() {
	ctx := context.Background()
	pair := s.createList("Items")

	s.Run("add validates fields", func() {
		_, err := s.svc.AddItem(ctx, pair.CreatorToken, models.ItemFields{})
		s.ErrorIs(err, ErrInvalidInput)
		_, err = s.svc.AddItem(ctx, pair.CreatorToken, models.ItemFields{Name: strPtr("  ")})
		s.ErrorIs(err, ErrInvalidInput)
		_, err = s.svc.AddItem(ctx, pair.CreatorToken, models.ItemFields{Name: strPtr("x"), Price: floatPtr(-1)})
		s.ErrorIs(err, ErrInvalidInput)
		_, err = s.svc.AddItem(ctx, pair.CreatorToken, models.ItemFields{
			Name: strPtr("x"), Category: strPtr(strings.Repeat("c", MaxCategoryLength+1)),
		})
		s.ErrorIs(err, ErrInvalidInput)
	})

	s.Run("add stores all fields", func() {
		item, err := s.svc.AddItem(ctx, pair.CreatorToken, models.ItemFields{
			Name:        strPtr("Headphones"),
			Description: strPtr("Noise cancelling"),
			URL:         strPtr("https://shop.example/hp"),
			Category:    strPtr("Audio"),
			Price:       floatPtr(199.99),
		})
		s.Require().NoError(err)
		s.True(validItemID(item.ID))
		s.Equal("Headphones", item.Name)
		s.Equal("Audio", *item.Category)
		s.InDelta(199.99, *item.Price, 0.001)
		s.Equal(s.clock, item.CreatedAt)
	})

	s.Run("edit changes only provided fields", func() {
		item := s.addItem(pair.CreatorToken, "Lamp")
		_, err := s.svc.EditItem(ctx, pair.CreatorToken, item.ID, models.ItemFields{Price: floatPtr(25)})
		s.Require().NoError(err)

		edited, err := s.svc.EditItem(ctx, pair.CreatorToken, item.ID, models.ItemFields{Description: strPtr("Desk lamp")})
		s.Require().NoError(err)
		s.Equal("Lamp", edited.Name)
		s.Equal("Desk lamp", *edited.Description)
		s.InDelta(25.0, *edited.Price, 0.001)

		cleared, err := s.svc.EditItem(ctx, pair.CreatorToken, item.ID, models.ItemFields{ClearPrice: true})
		s.Require().NoError(err)
		s.Nil(cleared.Price)

		_, err = s.svc.EditItem(ctx, pair.CreatorToken, item.ID, models.ItemFields{Name: strPtr("")})
		s.ErrorIs(err, ErrInvalidInput)
	})

	s.Run("delete removes the item", func() {
		item := s.addItem(pair.CreatorToken, "Mug")
		s.Require().NoError(s.svc.DeleteItem(ctx, pair.CreatorToken, item.ID))
		s.ErrorIs(s.svc.DeleteItem(ctx, pair.CreatorToken, item.ID), ErrNotFound)
		_, err := s.svc.TogglePurchased(ctx, pair.BuyerToken, item.ID)
		s.ErrorIs(err, ErrNotFound)
	})

	s.Run("malformed item ids are not found", func() {
		_, err := s.svc.EditItem(ctx, pair.CreatorToken, "nope", models.ItemFields{Name: strPtr("x")})
		s.ErrorIs(err, ErrNotFound)
		_, err = s.svc.TogglePurchased(ctx, pair.BuyerToken, "nope")
		s.ErrorIs(err, ErrNotFound)
	})
}

func (s *ServiceSuite) TestPurchaseBlindness() {
	ctx := context.Background()
	pair := s.createList("Blind")
	item := s.addItem(pair.CreatorToken, "Watch")

	state, err := s.svc.TogglePurchased(ctx, pair.BuyerToken, item.ID)
	s.Require().NoError(err)
	s.True(state.Purchased)
	s.Equal("Watch", state.Name)

	buyerView, err := s.svc.GetBuyerView(ctx, pair.BuyerToken)
	s.Require().NoError(err)
	s.Require().Len(buyerView.Items, 1)
	s.True(buyerView.Items[0].Purchased)

	creatorView, err := s.svc.GetCreatorView(ctx, pair.CreatorToken)
	s.Require().NoError(err)
	raw, err := json.Marshal(creatorView)
	s.Require().NoError(err)
	s.NotContains(string(raw), "purchased")

	// The creator keeps editing; purchase state is untouched.
	_, err = s.svc.EditItem(ctx, pair.CreatorToken, item.ID, models.ItemFields{Name: strPtr("Smart watch")})
	s.Require().NoError(err)
	buyerView, err = s.svc.GetBuyerView(ctx, pair.BuyerToken)
	s.Require().NoError(err)
	s.True(buyerView.Items[0].Purchased)
	s.Equal("Smart watch", buyerView.Items[0].Name)

	state, err = s.svc.TogglePurchased(ctx, pair.BuyerToken, item.ID)
	s.Require().NoError(err)
	s.False(state.Purchased)
}

// =============================================================================
// Email binding
// =============================================================================

func (s *ServiceSuite) TestBindEmail() {
	ctx := context.Background()
	pair := s.createList("Bound")

	s.Run("invalid email is rejected before anything is sent", func() {
		for _, email := range []string{"", "not-an-email", "Name <a@example.com>", "a@example.com, b@example.com"} {
			_, err := s.svc.BindEmail(ctx, pair.CreatorToken, email)
			s.ErrorIs(err, ErrInvalidInput, email)
		}
	})

	s.Run("sends the list links to the normalized address", func() {
		s.sender.EXPECT().
			Send(gomock.Any(), "alice@example.com", notify.KindListLinks, gomock.Any()).
			DoAndReturn(func(_ context.Context, _ string, _ notify.Kind, p notify.Params) error {
				s.Require().Len(p.Lists, 1)
				s.Equal("Bound", p.Lists[0].Name)
				s.Equal(pair.CreatorURL, p.Lists[0].CreatorURL)
				s.Equal(pair.BuyerURL, p.Lists[0].BuyerURL)
				return nil
			})

		res, err := s.svc.BindEmail(ctx, pair.CreatorToken, "  Alice@Example.COM ")
		s.Require().NoError(err)
		s.Empty(res.Warning)
	})

	s.Run("delivery failure keeps the binding and warns", func() {
		s.sender.EXPECT().
			Send(gomock.Any(), gomock.Any(), notify.KindListLinks, gomock.Any()).
			Return(errors.New("smtp down"))

		res, err := s.svc.BindEmail(ctx, pair.CreatorToken, "carol@example.com")
		s.Require().NoError(err)
		s.Equal(BindWarning, res.Warning)

		s.Require().NoError(s.svc.RequestRecovery(ctx, "carol@example.com"))
		s.Len(s.queue.messages(), 1)
	})
}

// =============================================================================
// Recovery
// =============================================================================

func (s *ServiceSuite) TestRecoveryFanOut() {
	ctx := context.Background()
	names := []string{"First", "Second", "Third"}
	pairs := make(map[string]*models.CapabilityPair)
	for i, name := range names {
		pair := s.createList(name)
		pairs[name] = pair
		// Same identity regardless of case and surrounding whitespace.
		s.bind(pair.CreatorToken, []string{"dana@example.com", "DANA@example.com", " dana@EXAMPLE.com"}[i])
	}
	s.createList("Unbound")

	s.Require().NoError(s.svc.RequestRecovery(ctx, "Dana@Example.com"))

	msgs := s.queue.messages()
	s.Require().Len(msgs, 1)
	s.Equal("dana@example.com", msgs[0].To)
	s.Equal(notify.KindRecoveryLink, msgs[0].Kind)
	s.Equal(time.Hour, msgs[0].Params.ExpiresIn)

	lists, err := s.svc.RedeemRecovery(ctx, s.lastRecoveryToken())
	s.Require().NoError(err)
	s.Require().Len(lists, 3)

	got := make([]string, 0, len(lists))
	for i, l := range lists {
		got = append(got, l.Name)
		want := pairs[l.Name]
		s.Require().NotNil(want, l.Name)
		s.Equal(want.CreatorToken, l.CreatorToken)
		s.Equal(want.BuyerToken, l.BuyerToken)
		s.Equal(want.CreatorURL, l.CreatorURL)
		if i > 0 {
			s.False(l.CreatedAt.Before(lists[i-1].CreatedAt))
		}
	}
	s.ElementsMatch(names, got)
}

func (s *ServiceSuite) TestRecoveryTokenIsSingleUse() {
	ctx := context.Background()
	pair := s.createList("Once")
	s.bind(pair.CreatorToken, "erin@example.com")
	s.Require().NoError(s.svc.RequestRecovery(ctx, "erin@example.com"))
	raw := s.lastRecoveryToken()

	_, err := s.svc.RedeemRecovery(ctx, raw)
	s.Require().NoError(err)

	_, err = s.svc.RedeemRecovery(ctx, raw)
	s.ErrorIs(err, ErrInvalidOrExpired)
}

func (s *ServiceSuite) TestRecoveryTokenConcurrentRedeem() {
	pair := s.createList("Race")
	s.bind(pair.CreatorToken, "fay@example.com")
	s.Require().NoError(s.svc.RequestRecovery(context.Background(), "fay@example.com"))
	raw := s.lastRecoveryToken()

	const workers = 16
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		failures  int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.svc.RedeemRecovery(context.Background(), raw)
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				successes++
			} else if errors.Is(err, ErrInvalidOrExpired) {
				failures++
			}
		}()
	}
	wg.Wait()

	s.Equal(1, successes)
	s.Equal(workers-1, failures)
}

func (s *ServiceSuite) TestRecoveryTokenStoredHashed() {
	pair := s.createList("Hashed")
	s.bind(pair.CreatorToken, "gus@example.com")
	s.Require().NoError(s.svc.RequestRecovery(context.Background(), "gus@example.com"))
	raw := s.lastRecoveryToken()

	c, err := s.svc.Resolve(context.Background(), pair.CreatorToken)
	s.Require().NoError(err)
	stored, ok := s.store.RecoveryHash(c.List.ID)
	s.Require().True(ok)
	s.NotEqual(raw, stored)
	s.Equal(token.HashSHA256Hex(raw), stored)
}

func (s *ServiceSuite) TestRecoveryReissueInvalidatesEarlierToken() {
	ctx := context.Background()
	pair := s.createList("Reissue")
	s.bind(pair.CreatorToken, "hal@example.com")

	s.Require().NoError(s.svc.RequestRecovery(ctx, "hal@example.com"))
	first := s.lastRecoveryToken()
	s.Require().NoError(s.svc.RequestRecovery(ctx, "hal@example.com"))
	second := s.lastRecoveryToken()
	s.NotEqual(first, second)

	_, err := s.svc.RedeemRecovery(ctx, first)
	s.ErrorIs(err, ErrInvalidOrExpired)
	lists, err := s.svc.RedeemRecovery(ctx, second)
	s.Require().NoError(err)
	s.Len(lists, 1)
}

func (s *ServiceSuite) TestRecoveryTokenExpires() {
	ctx := context.Background()
	pair := s.createList("Stale")
	s.bind(pair.CreatorToken, "ivy@example.com")
	s.Require().NoError(s.svc.RequestRecovery(ctx, "ivy@example.com"))
	raw := s.lastRecoveryToken()

	s.clock = s.clock.Add(time.Hour + time.Second)
	_, err := s.svc.RedeemRecovery(ctx, raw)
	s.ErrorIs(err, ErrInvalidOrExpired)
	s.Equal(1.0, testutil.ToFloat64(s.metrics.RecoveryRedemptions.WithLabelValues("expired")))

	// The expired token was consumed; a fresh one works.
	s.Require().NoError(s.svc.RequestRecovery(ctx, "ivy@example.com"))
	_, err = s.svc.RedeemRecovery(ctx, s.lastRecoveryToken())
	s.NoError(err)
}

func (s *ServiceSuite) TestJanitorPurgesExpiredTokens() {
	ctx := context.Background()
	stale := s.createList("Stale")
	fresh := s.createList("Fresh")
	s.bind(stale.CreatorToken, "old@example.com")
	s.bind(fresh.CreatorToken, "new@example.com")

	s.Require().NoError(s.svc.RequestRecovery(ctx, "old@example.com"))
	s.clock = s.clock.Add(2 * time.Hour)
	s.Require().NoError(s.svc.RequestRecovery(ctx, "new@example.com"))

	s.svc.purgeExpiredRecovery(ctx)

	staleCap, err := s.svc.Resolve(ctx, stale.CreatorToken)
	s.Require().NoError(err)
	_, ok := s.store.RecoveryHash(staleCap.List.ID)
	s.False(ok)

	freshCap, err := s.svc.Resolve(ctx, fresh.CreatorToken)
	s.Require().NoError(err)
	_, ok = s.store.RecoveryHash(freshCap.List.ID)
	s.True(ok)
}

func (s *ServiceSuite) TestRebindMovesListToNewIdentity() {
	ctx := context.Background()
	pair := s.createList("Moved")
	s.bind(pair.CreatorToken, "old@example.com")
	s.bind(pair.CreatorToken, "new@example.com")

	s.Require().NoError(s.svc.RequestRecovery(ctx, "old@example.com"))
	s.Empty(s.queue.messages())

	s.Require().NoError(s.svc.RequestRecovery(ctx, "new@example.com"))
	s.Len(s.queue.messages(), 1)
}

func (s *ServiceSuite) TestRecoveryRequestDoesNotRevealExistence() {
	ctx := context.Background()
	pair := s.createList("Known")
	s.bind(pair.CreatorToken, "known@example.com")

	// No expectations beyond the bind: any further Send fails the test.
	errUnknown := s.svc.RequestRecovery(ctx, "unknown@example.com")
	errKnown := s.svc.RequestRecovery(ctx, "known@example.com")
	s.NoError(errUnknown)
	s.NoError(errKnown)

	msgs := s.queue.messages()
	s.Require().Len(msgs, 1)
	s.Equal("known@example.com", msgs[0].To)
	s.Equal(2.0, testutil.ToFloat64(s.metrics.RecoveryRequests))
}

func (s *ServiceSuite) TestRecoveryQueueFullStillSucceeds() {
	pair := s.createList("Dropped")
	s.bind(pair.CreatorToken, "jo@example.com")
	s.queue.reject = true

	s.NoError(s.svc.RequestRecovery(context.Background(), "jo@example.com"))
}

func (s *ServiceSuite) TestRecoveryResponseFloor() {
	cfg := testConfig()
	cfg.MinRecoveryResponse = 40 * time.Millisecond
	svc := s.newService(cfg, nil, nil)

	started := time.Now()
	s.Require().NoError(svc.RequestRecovery(context.Background(), "nobody@example.com"))
	s.GreaterOrEqual(time.Since(started), 40*time.Millisecond)

	// A cancelled context stops the wait early.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	cfg.MinRecoveryResponse = time.Hour
	svc = s.newService(cfg, nil, nil)
	started = time.Now()
	s.Require().NoError(svc.RequestRecovery(ctx, "nobody@example.com"))
	s.Less(time.Since(started), time.Minute)
}

func (s *ServiceSuite) TestRedeemRejectsMalformedTokens() {
	for _, raw := range []string{"", "abc", strings.Repeat("g", 64), strings.Repeat("a", 63)} {
		_, err := s.svc.RedeemRecovery(context.Background(), raw)
		s.ErrorIs(err, ErrInvalidOrExpired, raw)
	}
	_, err := s.svc.RedeemRecovery(context.Background(), strings.Repeat("a", 64))
	s.ErrorIs(err, ErrInvalidOrExpired)
}

func (s *ServiceSuite) TestIdentityKeyIsDeterministic() {
	s.Equal(identity.Derive("Kim@Example.com"), identity.Derive("  kim@example.COM"))
	s.NotEqual(identity.Derive("kim@example.com"), identity.Derive("kim2@example.com"))
}

// =============================================================================
// Rate limiting
// =============================================================================

func (s *ServiceSuite) TestRecoveryRequestRateLimited() {
	cfg := testConfig()
	cfg.RateLimit.RecoveryRequest = 2
	svc := s.newService(cfg, nil, ratelimit.NewMemory())
	ctx := WithClient(context.Background(), "203.0.113.7")

	s.NoError(svc.RequestRecovery(ctx, "lee@example.com"))
	s.NoError(svc.RequestRecovery(ctx, "lee@example.com"))

	err := svc.RequestRecovery(ctx, "lee@example.com")
	s.ErrorIs(err, ErrRateLimited)
	var rl *RateLimitError
	s.Require().ErrorAs(err, &rl)
	s.Greater(rl.RetryAfter, time.Duration(0))

	// The client budget is spent too, whatever address is tried next.
	s.ErrorIs(svc.RequestRecovery(ctx, "other@example.com"), ErrRateLimited)
	s.Equal(2.0, testutil.ToFloat64(s.metrics.RateLimited.WithLabelValues(string(ratelimit.ScopeRecoveryRequest))))
}

func (s *ServiceSuite) TestRedeemRateLimited() {
	cfg := testConfig()
	cfg.RateLimit.RecoveryRedeem = 1
	svc := s.newService(cfg, nil, ratelimit.NewMemory())
	ctx := WithClient(context.Background(), "198.51.100.1")

	_, err := svc.RedeemRecovery(ctx, strings.Repeat("a", 64))
	s.ErrorIs(err, ErrInvalidOrExpired)
	_, err = svc.RedeemRecovery(ctx, strings.Repeat("a", 64))
	s.ErrorIs(err, ErrRateLimited)
}

type brokenLimiter struct{}

func (brokenLimiter) Allow(context.Context, string, int, time.Duration) (time.Duration, error) {
	return 0, ratelimit.ErrUnavailable
}

func (s *ServiceSuite) TestLimiterOutage() {
	cfg := testConfig()
	cfg.RateLimit.TokenLookup = 10
	cfg.RateLimit.RecoveryRequest = 10
	svc := s.newService(cfg, nil, brokenLimiter{})
	pair := s.createList("Outage")

	_, err := svc.GetCreatorView(context.Background(), pair.CreatorToken)
	s.NoError(err, "token lookups fail open")

	err = svc.RequestRecovery(context.Background(), "mo@example.com")
	s.ErrorIs(err, ErrDependency, "recovery fails closed")
}

// =============================================================================
// Store failures
// =============================================================================

func (s *ServiceSuite) TestStoreFailureIsNotNotFound() {
	ctx := context.Background()
	pair := s.createList("Outage")
	s.store.Err = errors.New("connection refused")

	_, err := s.svc.GetCreatorView(ctx, pair.CreatorToken)
	s.ErrorIs(err, ErrDependency)
	s.NotErrorIs(err, ErrNotFound)

	_, err = s.svc.CreateList(ctx, "New")
	s.ErrorIs(err, ErrDependency)

	s.ErrorIs(s.svc.RequestRecovery(ctx, "ned@example.com"), ErrDependency)

	_, err = s.svc.RedeemRecovery(ctx, strings.Repeat("b", 64))
	s.ErrorIs(err, ErrDependency)
	s.NotErrorIs(err, ErrInvalidOrExpired)
}
