package filtercache_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/lindenhollow/filtercache"
	"github.com/lindenhollow/filtercache/fetchmode"
	"github.com/lindenhollow/filtercache/filter"
	"github.com/lindenhollow/filtercache/memsource"
	"github.com/lindenhollow/filtercache/source"
)

type person struct {
	ID   int
	Name string
}

func hundredPeople() []person {
	people := make([]person, 0, 100)
	for i := 1; i <= 100; i++ {
		people = append(people, person{ID: i, Name: "person"})
	}
	return people
}

// alwaysErrorSource fails every RequestData call, used to prove a
// cached page is served without touching the source (S3).
type alwaysErrorSource struct{}

func (alwaysErrorSource) RequestData(context.Context, source.Request[person], int) (source.Response[int, person], error) {
	return source.Response[int, person]{}, errors.New("source should not have been called")
}

// countingStrategy wraps fetchmode.Simple to record whether FetchOne was
// actually invoked for the mandatory requested-page fetch, proving the
// manager routes it through the configured strategy rather than calling
// the source directly.
type countingStrategy struct {
	fetchmode.Simple
	fetchOneCalls int
}

func (c *countingStrategy) FetchOne(ctx context.Context, page int, fetch fetchmode.AnyFetchFunc) (fetchmode.AnyResponse, error) {
	c.fetchOneCalls++
	return c.Simple.FetchOne(ctx, page, fetch)
}

// noPrefetch never prefetches, isolating the mandatory requested-page
// fetch from any additional prefetch fetches in tests.
type noPrefetch struct{}

func (noPrefetch) PagesToFetch(int, map[int]bool, int) ([]int, error) { return nil, nil }

var _ = Describe("Manager", func() {
	var (
		ctx       context.Context
		src       *memsource.Source[int, person]
		noFilter  *filter.Composite[person]
		manager   *filtercache.Manager[int, person]
	)

	BeforeEach(func() {
		ctx = context.Background()
		src = memsource.New[int](hundredPeople(), func(p person) int { return p.ID })
		noFilter = filter.NewComposite[person]()
		manager = filtercache.NewManager[int, person]()
	})

	It("pages through a flat dataset (S1)", func() {
		page1, err := manager.GetData(ctx, noFilter, 1, 25, src)
		Expect(err).NotTo(HaveOccurred())
		Expect(page1).To(HaveLen(25))
		Expect(page1[0].ID).To(Equal(1))
		Expect(page1[24].ID).To(Equal(25))

		page2, err := manager.GetData(ctx, noFilter, 2, 25, src)
		Expect(err).NotTo(HaveOccurred())
		Expect(page2[0].ID).To(Equal(26))
		Expect(page2[24].ID).To(Equal(50))

		Expect(len(manager.CachedData())).To(BeNumerically(">=", 25))
	})

	It("does not re-fetch a fully cached page (S3, idempotence / invariant 7)", func() {
		_, err := manager.GetData(ctx, noFilter, 1, 25, src)
		Expect(err).NotTo(HaveOccurred())

		entities, err := manager.GetData(ctx, noFilter, 1, 25, alwaysErrorSource{})
		Expect(err).NotTo(HaveOccurred())
		Expect(entities).To(HaveLen(25))
		Expect(entities[0].ID).To(Equal(1))
	})

	It("handles a tail page shorter than pageSize (S4)", func() {
		for page := 1; page <= 4; page++ {
			_, err := manager.GetData(ctx, noFilter, page, 30, src)
			Expect(err).NotTo(HaveOccurred())
		}
		last, err := manager.GetData(ctx, noFilter, 4, 30, alwaysErrorSource{})
		Expect(err).NotTo(HaveOccurred())
		Expect(last).To(HaveLen(10))
	})

	It("reuses the filter-page map across equivalent fingerprints (S2)", func() {
		registry := filter.NewRegistry(nil)
		filter.Register[person](registry, "person", "name", func(p person) any { return p.Name })

		f1, err := filter.NewBuilder[person](registry, "person").Where("name", filter.Equals("person")).Build()
		Expect(err).NotTo(HaveOccurred())
		f2, err := filter.NewBuilder[person](registry, "person").Where("name", filter.Equals("person")).Build()
		Expect(err).NotTo(HaveOccurred())

		Expect(f1.Fingerprint()).To(Equal(f2.Fingerprint()))

		_, err = manager.GetData(ctx, f1, 1, 10, src)
		Expect(err).NotTo(HaveOccurred())
		// Second fingerprint hits the same filter-page map, so page 1 is
		// already cached and the source must not be consulted again.
		_, err = manager.GetData(ctx, f2, 1, 10, alwaysErrorSource{})
		Expect(err).NotTo(HaveOccurred())
	})

	It("round-trips a snapshot (S5, invariant 6)", func() {
		_, err := manager.GetData(ctx, noFilter, 1, 25, src)
		Expect(err).NotTo(HaveOccurred())

		snap := manager.Snapshot()
		restored := filtercache.RestoreManager[int, person](snap)

		Expect(restored.CachedData()).To(ConsistOf(manager.CachedData()))

		origSnap := manager.Snapshot()
		restoredSnap := restored.Snapshot()
		Expect(restoredSnap.FilterPages).To(HaveLen(len(origSnap.FilterPages)))
		for fp, fpSnap := range origSnap.FilterPages {
			other, ok := restoredSnap.FilterPages[fp]
			Expect(ok).To(BeTrue())
			Expect(other.TotalElements).To(Equal(fpSnap.TotalElements))
			Expect(other.KnownCount).To(Equal(fpSnap.KnownCount))
			Expect(other.PopulatedPositions).To(Equal(fpSnap.PopulatedPositions))
			Expect(other.PopulatedPages).To(Equal(fpSnap.PopulatedPages))
		}
	})

	It("rejects a nil filter and an invalid page/pageSize", func() {
		_, err := manager.GetData(ctx, nil, 1, 10, src)
		Expect(err).To(HaveOccurred())

		_, err = manager.GetData(ctx, noFilter, 0, 10, src)
		Expect(err).To(HaveOccurred())

		_, err = manager.GetData(ctx, noFilter, 1, 0, src)
		Expect(err).To(HaveOccurred())
	})

	It("keeps knownCount monotonic across calls (invariant 8)", func() {
		_, err := manager.GetData(ctx, noFilter, 1, 25, src)
		Expect(err).NotTo(HaveOccurred())
		first := manager.CachedData()

		_, err = manager.GetData(ctx, noFilter, 2, 25, src)
		Expect(err).NotTo(HaveOccurred())
		second := manager.CachedData()

		Expect(len(second)).To(BeNumerically(">=", len(first)))
	})

	It("routes the mandatory requested-page fetch through the configured fetch-mode strategy", func() {
		strategy := &countingStrategy{}
		m := filtercache.NewManager[int, person](
			filtercache.WithFetchMode[int, person](strategy),
			filtercache.WithPrefetchStrategy[int, person](noPrefetch{}),
		)
		_, err := m.GetData(ctx, noFilter, 1, 25, src)
		Expect(err).NotTo(HaveOccurred())
		Expect(strategy.fetchOneCalls).To(Equal(1))
	})

	It("invokes onInsert once per newly observed id", func() {
		var seen []int
		m := filtercache.NewManager[int, person](
			filtercache.WithOnInsert[int, person](func(id int, _ person) { seen = append(seen, id) }),
		)
		_, err := m.GetData(ctx, noFilter, 1, 25, src)
		Expect(err).NotTo(HaveOccurred())
		_, err = m.GetData(ctx, noFilter, 1, 25, alwaysErrorSource{})
		Expect(err).NotTo(HaveOccurred())
		// Page 1 plus page 2, which the default ImmediateAround strategy
		// prefetches; the second, fully cached call observes nothing new.
		Expect(seen).To(HaveLen(50))
	})
})
