package handle_test

import (
	"context"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/lindenhollow/filtercache/filter"
	"github.com/lindenhollow/filtercache/handle"
	"github.com/lindenhollow/filtercache/memsource"
)

type widget struct {
	ID int
}

var _ = Describe("Manager", func() {
	var (
		ctx context.Context
		src *memsource.Source[int, widget]
		f   *filter.Composite[widget]
	)

	BeforeEach(func() {
		ctx = context.Background()
		src = memsource.New[int](
			[]widget{{ID: 1}, {ID: 2}, {ID: 3}},
			func(w widget) int { return w.ID },
		)
		f = filter.NewComposite[widget]()
	})

	It("allocates one handle table entry per observed entity", func() {
		m := handle.NewManager[int, widget](nil)
		_, err := m.GetData(ctx, f, 1, 10, src)
		Expect(err).NotTo(HaveOccurred())

		snap := m.Snapshot()
		table, ok := snap.Addendum.(map[uuid.UUID]int)
		Expect(ok).To(BeTrue())
		Expect(table).To(HaveLen(3))
	})

	It("resolves entities by handle", func() {
		m := handle.NewManager[int, widget](nil)
		_, err := m.GetData(ctx, f, 1, 10, src)
		Expect(err).NotTo(HaveOccurred())

		snap := m.Snapshot()
		table := snap.Addendum.(map[uuid.UUID]int)
		var handles []uuid.UUID
		for h := range table {
			handles = append(handles, h)
		}

		resolved := m.FindByHandle(handles)
		Expect(resolved).To(HaveLen(3))
	})

	It("does not mint a second handle when the same ids are observed again", func() {
		m := handle.NewManager[int, widget](nil)
		_, err := m.GetData(ctx, f, 1, 10, src)
		Expect(err).NotTo(HaveOccurred())

		f2, err2 := filter.NewBuilder[widget](filter.NewRegistry(nil), "widget").Build()
		Expect(err2).NotTo(HaveOccurred())
		_, err = m.GetData(ctx, f2, 1, 10, src)
		Expect(err).NotTo(HaveOccurred())

		// f2 is also an empty composite, so it shares f's fingerprint and
		// page 1 is served from cache. onInsert only fires for ids the
		// entity store has never seen, so the handle table does not grow.
		table := m.Snapshot().Addendum.(map[uuid.UUID]int)
		Expect(table).To(HaveLen(3))
	})

	It("accepts WithHandleDedup without changing the handle count", func() {
		m := handle.NewManager[int, widget]([]handle.Option{handle.WithHandleDedup()})
		_, err := m.GetData(ctx, f, 1, 10, src)
		Expect(err).NotTo(HaveOccurred())

		table := m.Snapshot().Addendum.(map[uuid.UUID]int)
		Expect(table).To(HaveLen(3))
	})
})
