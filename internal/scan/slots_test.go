package scan

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// describeSlots runs the behaviour every Slots backend shares
func describeSlots(open func(dir string) (Slots, error)) {
	var slots Slots

	BeforeEach(func() {
		var err error
		slots, err = open(GinkgoT().TempDir())
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		if slots != nil {
			slots.Close()
		}
	})

	Describe("Get", func() {
		When("nothing was stored", func() {
			It("returns ErrSlotEmpty", func() {
				_, err := slots.Get(historySlot)
				Expect(err).To(MatchError(ErrSlotEmpty))
			})
		})

		When("a value was stored", func() {
			BeforeEach(func() {
				Expect(slots.Set(historySlot, []byte(`[{"id":"a"}]`))).To(Succeed())
			})

			It("returns the value", func() {
				data, err := slots.Get(historySlot)
				Expect(err).NotTo(HaveOccurred())
				Expect(string(data)).To(Equal(`[{"id":"a"}]`))
			})
		})
	})

	Describe("Set", func() {
		It("overwrites the previous value", func() {
			Expect(slots.Set(historySlot, []byte("first"))).To(Succeed())
			Expect(slots.Set(historySlot, []byte("second"))).To(Succeed())

			data, err := slots.Get(historySlot)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(data)).To(Equal("second"))
		})

		It("keeps slots apart", func() {
			Expect(slots.Set("one", []byte("1"))).To(Succeed())
			Expect(slots.Set("two", []byte("2"))).To(Succeed())

			data, err := slots.Get("one")
			Expect(err).NotTo(HaveOccurred())
			Expect(string(data)).To(Equal("1"))
		})
	})

	Describe("Remove", func() {
		It("empties the slot", func() {
			Expect(slots.Set(historySlot, []byte("value"))).To(Succeed())
			Expect(slots.Remove(historySlot)).To(Succeed())

			_, err := slots.Get(historySlot)
			Expect(err).To(MatchError(ErrSlotEmpty))
		})

		It("accepts an empty slot", func() {
			Expect(slots.Remove(historySlot)).To(Succeed())
		})
	})
}

var _ = Describe("BoltSlots", func() {
	describeSlots(func(dir string) (Slots, error) {
		return NewBoltSlots(filepath.Join(dir, "test.db"))
	})

	When("the database is reopened", func() {
		It("keeps the stored value", func() {
			path := filepath.Join(GinkgoT().TempDir(), "reopen.db")
			db, err := NewBoltSlots(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(db.Set(historySlot, []byte("kept"))).To(Succeed())
			Expect(db.Close()).To(Succeed())

			db, err = NewBoltSlots(path)
			Expect(err).NotTo(HaveOccurred())
			defer db.Close()

			data, err := db.Get(historySlot)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(data)).To(Equal("kept"))
		})
	})
})

var _ = Describe("SQLiteSlots", func() {
	describeSlots(func(dir string) (Slots, error) {
		return NewSQLiteSlots(filepath.Join(dir, "test.sqlite"))
	})
})

var _ = Describe("FileSlots", func() {
	describeSlots(func(dir string) (Slots, error) {
		return NewFileSlots(filepath.Join(dir, "slots"))
	})

	Describe("NewFileSlots", func() {
		It("creates the directory", func() {
			dir := filepath.Join(GinkgoT().TempDir(), "nested", "slots")
			_, err := NewFileSlots(dir)
			Expect(err).NotTo(HaveOccurred())

			info, err := os.Stat(dir)
			Expect(err).NotTo(HaveOccurred())
			Expect(info.IsDir()).To(BeTrue())
		})
	})

	Describe("slot names", func() {
		var slots *FileSlots

		BeforeEach(func() {
			var err error
			slots, err = NewFileSlots(GinkgoT().TempDir())
			Expect(err).NotTo(HaveOccurred())
		})

		It("rejects path traversal", func() {
			Expect(slots.Set("../escape", []byte("x"))).To(MatchError(ContainSubstring("invalid slot name")))
		})

		It("stores the slot as a json file", func() {
			Expect(slots.Set(historySlot, []byte("[]"))).To(Succeed())
			_, err := os.Stat(filepath.Join(slots.basePath, historySlot+".json"))
			Expect(err).NotTo(HaveOccurred())
		})
	})
})
