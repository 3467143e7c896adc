package glyphcast_test

import (
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/glyphcast/glyphcast"
)

var _ = Describe("ResultCache", func() {
	var cache *glyphcast.ResultCache

	frame := func(i int) glyphcast.ProcessedFrame {
		return glyphcast.ProcessedFrame{Index: i, Lines: []string{"@"}}
	}

	BeforeEach(func() {
		var err error
		cache, err = glyphcast.NewResultCache(2)
		Expect(err).NotTo(HaveOccurred())
	})

	It("returns what was put under the same key", func() {
		cache.Put(0, "aaa", frame(0))
		got, ok := cache.Get(0, "aaa")
		Expect(ok).To(BeTrue())
		Expect(got.Index).To(Equal(0))
		Expect(got.Lines).To(Equal([]string{"@"}))
	})

	It("misses on a different fingerprint", func() {
		cache.Put(0, "aaa", frame(0))
		_, ok := cache.Get(0, "bbb")
		Expect(ok).To(BeFalse())
	})

	It("misses on a different frame index", func() {
		cache.Put(0, "aaa", frame(0))
		_, ok := cache.Get(1, "aaa")
		Expect(ok).To(BeFalse())
	})

	It("keeps settings generations apart", func() {
		cache.Put(0, "aaa", frame(1))
		cache.Put(0, "bbb", frame(2))

		got, ok := cache.Get(0, "aaa")
		Expect(ok).To(BeTrue())
		Expect(got.Index).To(Equal(1))

		got, ok = cache.Get(0, "bbb")
		Expect(ok).To(BeTrue())
		Expect(got.Index).To(Equal(2))
	})

	It("never grows past its capacity", func() {
		for i := 0; i < 5; i++ {
			cache.Put(i, "aaa", frame(i))
		}
		Expect(cache.Len()).To(Equal(2))
	})

	It("evicts exactly the least recently used entry", func() {
		cache.Put(0, "aaa", frame(0))
		cache.Put(1, "aaa", frame(1))

		// Touching 0 makes 1 the eviction candidate.
		_, ok := cache.Get(0, "aaa")
		Expect(ok).To(BeTrue())

		cache.Put(2, "aaa", frame(2))

		_, ok = cache.Get(1, "aaa")
		Expect(ok).To(BeFalse())
		_, ok = cache.Get(0, "aaa")
		Expect(ok).To(BeTrue())
		_, ok = cache.Get(2, "aaa")
		Expect(ok).To(BeTrue())
	})

	It("empties on Clear", func() {
		cache.Put(0, "aaa", frame(0))
		cache.Clear()
		Expect(cache.Len()).To(BeZero())
		_, ok := cache.Get(0, "aaa")
		Expect(ok).To(BeFalse())
	})

	It("rejects a nonpositive capacity", func() {
		_, err := glyphcast.NewResultCache(0)
		Expect(err).To(HaveOccurred())
	})
})
