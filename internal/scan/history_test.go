package scan

import (
	"encoding/json"
	"errors"
	"fmt"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/zombor/product-scanner/internal/classifying"
)

func historyItem(n int) ScanHistoryItem {
	return ScanHistoryItem{
		ID:          fmt.Sprintf("item-%d", n),
		Timestamp:   int64(1700000000000 + n),
		Description: fmt.Sprintf("product %d", n),
		Result: classifying.AnalysisResult{
			ProductName:   fmt.Sprintf("Product %d", n),
			Category:      classifying.Miscellaneous,
			Confidence:    0.5,
			SuggestedTags: []string{},
		},
	}
}

var _ = Describe("History", func() {
	var (
		slots   *mockSlots
		history *History
	)

	BeforeEach(func() {
		slots = newMockSlots()
		history = NewHistory(slots)
	})

	Describe("Load", func() {
		When("nothing is stored", func() {
			It("returns an empty history", func() {
				Expect(history.Load()).To(BeEmpty())
			})
		})

		When("the stored data is corrupt", func() {
			BeforeEach(func() {
				slots.values[historySlot] = []byte("{not json")
			})

			It("returns an empty history", func() {
				Expect(history.Load()).To(BeEmpty())
			})
		})

		When("the store cannot be read", func() {
			BeforeEach(func() {
				slots.getErr = errors.New("disk gone")
			})

			It("returns an empty history", func() {
				Expect(history.Load()).To(BeEmpty())
			})
		})

		When("more than the capacity is stored", func() {
			BeforeEach(func() {
				items := make([]ScanHistoryItem, 0, 60)
				for i := 0; i < 60; i++ {
					items = append(items, historyItem(i))
				}
				data, err := json.Marshal(items)
				Expect(err).NotTo(HaveOccurred())
				slots.values[historySlot] = data
			})

			It("keeps the first entries", func() {
				items := history.Load()
				Expect(items).To(HaveLen(HistoryCapacity))
				Expect(items[0].ID).To(Equal("item-0"))
				Expect(items[HistoryCapacity-1].ID).To(Equal("item-49"))
			})
		})
	})

	Describe("Append", func() {
		It("puts the new entry first in a fresh load", func() {
			Expect(history.Append(historyItem(1))).To(Succeed())
			Expect(history.Append(historyItem(2))).To(Succeed())

			items := NewHistory(slots).Load()
			Expect(items).To(HaveLen(2))
			Expect(items[0].ID).To(Equal("item-2"))
			Expect(items[1].ID).To(Equal("item-1"))
		})

		It("stores the list under the history slot", func() {
			Expect(history.Append(historyItem(1))).To(Succeed())

			var stored []ScanHistoryItem
			Expect(json.Unmarshal(slots.values[historySlot], &stored)).To(Succeed())
			Expect(stored).To(HaveLen(1))
			Expect(stored[0].Result.Category).To(Equal(classifying.Miscellaneous))
		})

		When("51 scans are appended to an empty history", func() {
			BeforeEach(func() {
				for i := 1; i <= 51; i++ {
					Expect(history.Append(historyItem(i))).To(Succeed())
				}
			})

			It("keeps the 50 most recent, newest first", func() {
				items := history.Load()
				Expect(items).To(HaveLen(HistoryCapacity))
				Expect(items[0].ID).To(Equal("item-51"))
				Expect(items[HistoryCapacity-1].ID).To(Equal("item-2"))
			})
		})

		When("the history is full", func() {
			BeforeEach(func() {
				for i := 1; i <= HistoryCapacity; i++ {
					Expect(history.Append(historyItem(i))).To(Succeed())
				}
			})

			It("drops the oldest entry", func() {
				Expect(history.Append(historyItem(99))).To(Succeed())
				items := history.Items()
				Expect(items).To(HaveLen(HistoryCapacity))
				Expect(items[0].ID).To(Equal("item-99"))
				for _, item := range items {
					Expect(item.ID).NotTo(Equal("item-1"))
				}
			})
		})

		When("the write fails", func() {
			BeforeEach(func() {
				slots.setErr = errors.New("quota exceeded")
			})

			It("returns the error", func() {
				Expect(history.Append(historyItem(1))).To(MatchError(ContainSubstring("quota exceeded")))
			})

			It("still shows the entry for this session", func() {
				history.Append(historyItem(1))
				Expect(history.Items()).To(HaveLen(1))
			})
		})
	})

	Describe("Clear", func() {
		BeforeEach(func() {
			Expect(history.Append(historyItem(1))).To(Succeed())
		})

		When("confirmed", func() {
			It("empties the history on the next load", func() {
				Expect(history.Clear(true)).To(Succeed())
				Expect(history.Items()).To(BeEmpty())
				Expect(NewHistory(slots).Load()).To(BeEmpty())
			})
		})

		When("not confirmed", func() {
			It("returns ErrConfirmationRequired and keeps the entries", func() {
				Expect(history.Clear(false)).To(MatchError(ErrConfirmationRequired))
				Expect(NewHistory(slots).Load()).To(HaveLen(1))
			})
		})
	})

	Describe("Get", func() {
		BeforeEach(func() {
			Expect(history.Append(historyItem(7))).To(Succeed())
		})

		It("finds an entry by id", func() {
			item, err := history.Get("item-7")
			Expect(err).NotTo(HaveOccurred())
			Expect(item.Description).To(Equal("product 7"))
		})

		It("returns ErrHistoryItemNotFound for an unknown id", func() {
			_, err := history.Get("nope")
			Expect(err).To(MatchError(ErrHistoryItemNotFound))
		})
	})

	Describe("Items", func() {
		It("returns a copy", func() {
			Expect(history.Append(historyItem(1))).To(Succeed())
			items := history.Items()
			items[0].ID = "changed"
			Expect(history.Items()[0].ID).To(Equal("item-1"))
		})
	})
})
