package fetchmode_test

import (
	"context"
	"errors"
	"sync/atomic"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/lindenhollow/filtercache/fetchmode"
	"github.com/lindenhollow/filtercache/source"
)

func fetchFunc(calls *int32) fetchmode.FetchFunc[int, string] {
	return func(_ context.Context, page int) (source.Response[int, string], error) {
		atomic.AddInt32(calls, 1)
		return source.Response[int, string]{Page: page, Items: []string{"item"}, IDs: []int{page}}, nil
	}
}

var _ = Describe("Simple", func() {
	It("fetches a single page via FetchOne", func() {
		var calls int32
		resp, err := fetchmode.FetchOne[int, string](context.Background(), fetchmode.Simple{}, 7, fetchFunc(&calls))
		Expect(err).NotTo(HaveOccurred())
		Expect(calls).To(Equal(int32(1)))
		Expect(resp.Page).To(Equal(7))
	})

	It("propagates a FetchOne source error", func() {
		fail := func(context.Context, int) (source.Response[int, string], error) {
			return source.Response[int, string]{}, errors.New("boom")
		}
		_, err := fetchmode.FetchOne[int, string](context.Background(), fetchmode.Simple{}, 1, fail)
		Expect(err).To(HaveOccurred())
	})

	It("fetches pages in order and counts every call", func() {
		var calls int32
		responses, err := fetchmode.FetchMany[int, string](context.Background(), fetchmode.Simple{}, []int{3, 1, 2}, fetchFunc(&calls))
		Expect(err).NotTo(HaveOccurred())
		Expect(calls).To(Equal(int32(3)))
		Expect(responses).To(HaveLen(3))
		Expect(responses[0].Page).To(Equal(3))
		Expect(responses[1].Page).To(Equal(1))
		Expect(responses[2].Page).To(Equal(2))
	})

	It("propagates the first source error", func() {
		fail := func(context.Context, int) (source.Response[int, string], error) {
			return source.Response[int, string]{}, errors.New("boom")
		}
		_, err := fetchmode.FetchMany[int, string](context.Background(), fetchmode.Simple{}, []int{1}, fail)
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("Parallel", func() {
	It("fetches a single page via FetchOne", func() {
		var calls int32
		resp, err := fetchmode.FetchOne[int, string](context.Background(), fetchmode.Parallel{}, 7, fetchFunc(&calls))
		Expect(err).NotTo(HaveOccurred())
		Expect(calls).To(Equal(int32(1)))
		Expect(resp.Page).To(Equal(7))
	})

	It("fetches every requested page and returns responses in request order", func() {
		var calls int32
		responses, err := fetchmode.FetchMany[int, string](context.Background(), fetchmode.Parallel{Width: 2}, []int{1, 2, 3, 4, 5}, fetchFunc(&calls))
		Expect(err).NotTo(HaveOccurred())
		Expect(calls).To(Equal(int32(5)))
		Expect(responses).To(HaveLen(5))

		pages := make([]int, len(responses))
		for i, r := range responses {
			pages[i] = r.Page
		}
		Expect(pages).To(Equal([]int{1, 2, 3, 4, 5}))
	})

	It("propagates a source error", func() {
		fail := func(context.Context, int) (source.Response[int, string], error) {
			return source.Response[int, string]{}, errors.New("boom")
		}
		_, err := fetchmode.FetchMany[int, string](context.Background(), fetchmode.Parallel{}, []int{1, 2}, fail)
		Expect(err).To(HaveOccurred())
	})
})
