package classifying

import (
	"bytes"
	"image"
	"image/color"
	"image/png"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func tinyPNG() []byte {
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	Expect(png.Encode(&buf, img)).To(Succeed())
	return buf.Bytes()
}

var _ = Describe("EncodedImage", func() {
	Describe("ParseDataURL", func() {
		When("given a data url", func() {
			It("keeps the declared media type", func() {
				img, err := ParseDataURL("data:image/png;base64,aGVsbG8=")
				Expect(err).NotTo(HaveOccurred())
				Expect(img.MimeType).To(Equal("image/png"))
				Expect(string(img.Data)).To(Equal("hello"))
			})
		})

		When("given bare base64", func() {
			It("assumes JPEG", func() {
				img, err := ParseDataURL("aGVsbG8=")
				Expect(err).NotTo(HaveOccurred())
				Expect(img.MimeType).To(Equal("image/jpeg"))
			})
		})

		When("given an empty string", func() {
			It("returns no image", func() {
				img, err := ParseDataURL("")
				Expect(err).NotTo(HaveOccurred())
				Expect(img).To(BeNil())
			})
		})

		When("the payload is not base64", func() {
			It("returns an error", func() {
				_, err := ParseDataURL("data:image/png;base64,@@@")
				Expect(err).To(HaveOccurred())
			})
		})

		It("round trips through DataURL", func() {
			in := &EncodedImage{MimeType: "image/webp", Data: []byte{1, 2, 3}}
			out, err := ParseDataURL(in.DataURL())
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(Equal(in))
		})
	})

	Describe("DecodeUpload", func() {
		var (
			data        []byte
			contentType string
			filename    string
			img         *EncodedImage
			err         error
		)

		JustBeforeEach(func() {
			img, err = DecodeUpload(data, contentType, filename)
		})

		When("the file is a PNG", func() {
			BeforeEach(func() {
				data = tinyPNG()
				contentType = "image/png"
				filename = "mug.png"
			})

			It("keeps the bytes and media type", func() {
				Expect(err).NotTo(HaveOccurred())
				Expect(img.MimeType).To(Equal("image/png"))
				Expect(img.Data).To(Equal(data))
			})
		})

		When("the content type is missing", func() {
			BeforeEach(func() {
				data = []byte("fake jpeg")
				contentType = ""
				filename = "photo.JPG"
			})

			It("uses the file extension", func() {
				Expect(err).NotTo(HaveOccurred())
				Expect(img.MimeType).To(Equal("image/jpeg"))
			})
		})

		When("neither header nor extension help", func() {
			BeforeEach(func() {
				data = tinyPNG()
				contentType = "application/octet-stream"
				filename = "upload"
			})

			It("sniffs the content", func() {
				Expect(err).NotTo(HaveOccurred())
				Expect(img.MimeType).To(Equal("image/png"))
			})
		})

		When("the file is not an image", func() {
			BeforeEach(func() {
				data = []byte("%PDF-1.4 fake")
				contentType = "application/pdf"
				filename = "sheet.pdf"
			})

			It("returns ErrInvalidFileType", func() {
				Expect(err).To(MatchError(ErrInvalidFileType))
			})
		})

		When("the file claims to be HEIC but is garbage", func() {
			BeforeEach(func() {
				data = []byte("not really heic")
				contentType = "image/heic"
				filename = "IMG_0001.HEIC"
			})

			It("returns ErrInvalidFileType with the decoding error", func() {
				Expect(err).To(MatchError(ErrInvalidFileType))
				Expect(err.Error()).To(ContainSubstring("decoding HEIC/HEIF image"))
			})
		})
	})

	Describe("isHEICFormat", func() {
		It("detects the ftyp heic brand", func() {
			data := append([]byte{0, 0, 0, 24}, []byte("ftypheic0000")...)
			Expect(isHEICFormat(data)).To(BeTrue())
		})

		It("ignores short data", func() {
			Expect(isHEICFormat([]byte("ftyp"))).To(BeFalse())
		})
	})
})
