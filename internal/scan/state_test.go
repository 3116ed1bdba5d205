package scan

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/zombor/product-scanner/internal/classifying"
)

var _ = Describe("Reduce", func() {
	var result classifying.AnalysisResult

	BeforeEach(func() {
		result = classifying.AnalysisResult{
			ProductName:   "Cordless drill",
			Category:      classifying.DIYTools,
			Confidence:    0.97,
			Reasoning:     "Power tool.",
			SuggestedTags: []string{"drill"},
		}
	})

	It("does not modify the input state", func() {
		s := InitialState()
		s.Description = "before"
		_ = Reduce(s, SetDescription{Description: "after"})
		Expect(s.Description).To(Equal("before"))
	})

	Describe("SetImage", func() {
		It("clears a previous file error", func() {
			s := Reduce(InitialState(), InvalidFile{Err: classifying.ErrInvalidFileType})
			Expect(s.ErrorKind).To(Equal(ErrorKindFile))

			s = Reduce(s, SetImage{Image: "data:image/png;base64,AA=="})
			Expect(s.Error).To(BeEmpty())
			Expect(s.ErrorKind).To(BeEmpty())
			Expect(s.Image).To(Equal("data:image/png;base64,AA=="))
		})
	})

	Describe("AnalyzeStarted", func() {
		It("drops the previous result and warning", func() {
			s := Reduce(InitialState(), AnalyzeSucceeded{Result: result, HistoryID: "h1"})
			s = Reduce(s, HistoryWriteFailed{Err: errors.New("full")})

			s = Reduce(s, AnalyzeStarted{})
			Expect(s.Phase).To(Equal(PhaseAnalyzing))
			Expect(s.Result).To(BeNil())
			Expect(s.Warning).To(BeEmpty())
			Expect(s.SelectedHistoryID).To(BeEmpty())
		})
	})

	Describe("AnalyzeSucceeded", func() {
		It("shows an independent copy of the result", func() {
			s := Reduce(InitialState(), AnalyzeSucceeded{Result: result, HistoryID: "h1"})
			result.SuggestedTags[0] = "changed"

			Expect(s.Phase).To(Equal(PhaseResult))
			Expect(s.Result.SuggestedTags).To(Equal([]string{"drill"}))
			Expect(s.SelectedHistoryID).To(Equal("h1"))
		})
	})

	Describe("AnalyzeFailed", func() {
		DescribeTable("maps the error to a kind",
			func(err error, kind ErrorKind) {
				s := Reduce(Reduce(InitialState(), AnalyzeStarted{}), AnalyzeFailed{Err: err})
				Expect(s.Phase).To(Equal(PhaseError))
				Expect(s.ErrorKind).To(Equal(kind))
				Expect(s.Error).To(Equal(err.Error()))
			},
			Entry("authentication", &classifying.AuthenticationError{}, ErrorKindAuth),
			Entry("classification", &classifying.ClassificationError{Err: errors.New("boom")}, ErrorKindClassification),
			Entry("missing input", classifying.ErrInputMissing, ErrorKindInput),
			Entry("anything else", errors.New("network down"), ErrorKindClassification),
		)
	})

	Describe("Reset", func() {
		It("returns to an empty idle scan and keeps the tab", func() {
			s := Reduce(InitialState(), SwitchTab{Tab: TabHistory})
			s = Reduce(s, SetDescription{Description: "drill"})
			s = Reduce(s, AnalyzeSucceeded{Result: result})

			s = Reduce(s, Reset{})
			Expect(s.Tab).To(Equal(TabHistory))
			Expect(s.Phase).To(Equal(PhaseIdle))
			Expect(s.Description).To(BeEmpty())
			Expect(s.Result).To(BeNil())
		})
	})

	Describe("SelectHistory", func() {
		It("shows the stored entry on the analyze tab", func() {
			s := Reduce(InitialState(), SwitchTab{Tab: TabHistory})
			s = Reduce(s, SelectHistory{Item: ScanHistoryItem{ID: "h9", Description: "drill", Result: result}})

			Expect(s.Tab).To(Equal(TabAnalyze))
			Expect(s.Phase).To(Equal(PhaseResult))
			Expect(s.Description).To(Equal("drill"))
			Expect(s.Result.ProductName).To(Equal("Cordless drill"))
			Expect(s.SelectedHistoryID).To(Equal("h9"))
		})
	})

	Describe("CredentialSelected", func() {
		It("leaves other errors in place", func() {
			s := Reduce(InitialState(), AnalyzeFailed{Err: errors.New("boom")})
			s = Reduce(s, CredentialPrompted{})

			s = Reduce(s, CredentialSelected{})
			Expect(s.CredentialPrompt).To(BeFalse())
			Expect(s.Phase).To(Equal(PhaseError))
			Expect(s.Error).To(Equal("boom"))
		})
	})
})

var _ = Describe("ParseTab", func() {
	It("accepts the known tabs", func() {
		Expect(ParseTab("analyze")).To(Equal(TabAnalyze))
		Expect(ParseTab("history")).To(Equal(TabHistory))
	})

	It("rejects anything else", func() {
		_, err := ParseTab("settings")
		Expect(err).To(HaveOccurred())
	})
})
