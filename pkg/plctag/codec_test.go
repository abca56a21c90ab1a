// Copyright 2025 UMH Systems GmbH
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package plctag_test

import (
	"errors"
	"math"
	"strconv"

	"github.com/danomagnum/gologix"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	. "github.com/united-manufacturing-hub/benthos-plctag/pkg/plctag"
)

var _ = Describe("Tag value codec", func() {

	DescribeTable("format(parse(s)) returns the canonical text",
		func(t TagType, input string, expected string) {
			v, err := Parse(t, input)
			Expect(err).NotTo(HaveOccurred())
			Expect(v.Type()).To(Equal(t))

			out, err := Format(v)
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(Equal(expected))
		},
		Entry("bit lower", Bit, "true", "True"),
		Entry("bit upper", Bit, "FALSE", "False"),
		Entry("bit padded", Bit, " True ", "True"),
		Entry("int8 min", Int8, "-128", "-128"),
		Entry("int8 plus sign", Int8, "+7", "7"),
		Entry("int16", Int16, "-32768", "-32768"),
		Entry("int32", Int32, "42", "42"),
		Entry("int32 leading zeros", Int32, "007", "7"),
		Entry("int64 max", Int64, "9223372036854775807", "9223372036854775807"),
		Entry("uint8 max", UInt8, "255", "255"),
		Entry("uint16", UInt16, "65535", "65535"),
		Entry("uint32", UInt32, "+4294967295", "4294967295"),
		Entry("uint64 max", UInt64, "18446744073709551615", "18446744073709551615"),
		Entry("float32", Float32, "3.14", "3.14"),
		Entry("float32 scientific", Float32, "1.5e3", "1500"),
		Entry("float32 trailing zeros", Float32, "2.50", "2.5"),
		Entry("float64", Float64, "1234.567", "1234.567"),
		Entry("float64 small", Float64, "1e-7", "1e-07"),
		Entry("string", String, "Hello World", "Hello World"),
		Entry("string keeps whitespace", String, "  padded ", "  padded "),
		Entry("string empty", String, "", ""),
	)

	DescribeTable("parse rejects input outside the type's grammar or range",
		func(t TagType, input string) {
			_, err := Parse(t, input)
			Expect(err).To(HaveOccurred())
			Expect(IsParseError(err)).To(BeTrue())

			var pe *ParseError
			Expect(errors.As(err, &pe)).To(BeTrue())
			Expect(pe.Type).To(Equal(t))
			Expect(pe.Input).To(Equal(input))
		},
		Entry("int8 200", Int8, "200"),
		Entry("int8 -129", Int8, "-129"),
		Entry("int16 overflow", Int16, "32768"),
		Entry("int32 overflow", Int32, "2147483648"),
		Entry("int32 empty", Int32, ""),
		Entry("int32 whitespace only", Int32, "   "),
		Entry("int32 decimal", Int32, "1.5"),
		Entry("int64 text", Int64, "forty-two"),
		Entry("uint8 256", UInt8, "256"),
		Entry("uint8 negative", UInt8, "-1"),
		Entry("uint16 overflow", UInt16, "65536"),
		Entry("uint32 double sign", UInt32, "++1"),
		Entry("uint64 overflow", UInt64, "18446744073709551616"),
		Entry("float32 overflow", Float32, "3.5e38"),
		Entry("float32 empty", Float32, ""),
		Entry("float64 text", Float64, "pi"),
		Entry("float32 hex", Float32, "0x1p-2"),
		Entry("float64 hex", Float64, "0x1.8p1"),
		Entry("float64 hex with underscore", Float64, "0x_1p0"),
		Entry("float64 signed upper hex", Float64, "-0X1p3"),
		Entry("float32 inf", Float32, "inf"),
		Entry("float64 negative infinity", Float64, "-Infinity"),
		Entry("float64 NaN", Float64, "NaN"),
		Entry("float64 overflow", Float64, "1e309"),
		Entry("bit yes", Bit, "yes"),
		Entry("bit one", Bit, "1"),
		Entry("bit empty", Bit, ""),
	)

	It("parses UInt8 200 where Int8 fails", func() {
		v, err := Parse(UInt8, "200")
		Expect(err).NotTo(HaveOccurred())
		Expect(v.Value()).To(Equal(uint8(200)))

		_, err = Parse(Int8, "200")
		Expect(err).To(HaveOccurred())
		Expect(errors.Is(err, strconv.ErrRange)).To(BeTrue())
	})

	It("treats TRUE and true as the same bit", func() {
		upper, err := Parse(Bit, "TRUE")
		Expect(err).NotTo(HaveOccurred())
		lower, err := Parse(Bit, "true")
		Expect(err).NotTo(HaveOccurred())
		Expect(upper).To(Equal(lower))
		Expect(upper.Value()).To(BeTrue())
	})

	It("accepts an empty string for String but not for Int32", func() {
		v, err := Parse(String, "")
		Expect(err).NotTo(HaveOccurred())
		Expect(v.Value()).To(Equal(""))

		_, err = Parse(Int32, "")
		Expect(IsParseError(err)).To(BeTrue())
	})

	It("keeps float32 precision separate from float64", func() {
		v32, err := Parse(Float32, "0.1")
		Expect(err).NotTo(HaveOccurred())
		Expect(v32.Value()).To(Equal(float32(0.1)))

		v64, err := Parse(Float64, "0.1")
		Expect(err).NotTo(HaveOccurred())
		Expect(v64.Value()).To(Equal(0.1))
	})

	It("reports unsupported types distinctly from parse failures", func() {
		_, err := Parse(TagType(99), "1")
		Expect(errors.Is(err, ErrUnsupportedType)).To(BeTrue())
		Expect(IsParseError(err)).To(BeFalse())

		_, err = Format(TagValue{})
		Expect(errors.Is(err, ErrUnsupportedType)).To(BeTrue())
	})

	It("canonicalizes through parse and format", func() {
		out, err := Canonicalize(Bit, "tRuE")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(Equal("True"))

		_, err = Canonicalize(Int16, "nope")
		Expect(IsParseError(err)).To(BeTrue())
	})

	It("formats special float values", func() {
		v, err := NewTagValue(Float64, math.Inf(-1))
		Expect(err).NotTo(HaveOccurred())
		out, err := Format(v)
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(Equal("-Inf"))
	})

	Describe("NewTagValue", func() {
		It("accepts the Go type of the variant", func() {
			v, err := NewTagValue(Int32, int32(7))
			Expect(err).NotTo(HaveOccurred())
			Expect(v.Type()).To(Equal(Int32))
			Expect(v.Value()).To(Equal(int32(7)))
		})

		It("rejects other Go types", func() {
			_, err := NewTagValue(Int32, int64(7))
			Expect(err).To(HaveOccurred())

			_, err = NewTagValue(Bit, "true")
			Expect(err).To(HaveOccurred())
		})

		It("rejects unknown tag types", func() {
			_, err := NewTagValue(TagType(0), true)
			Expect(errors.Is(err, ErrUnsupportedType)).To(BeTrue())
		})
	})
})

var _ = Describe("TagType", func() {

	It("lists all twelve types in operator order", func() {
		Expect(TagTypes()).To(Equal([]TagType{
			Bit, Float32, Float64,
			Int8, Int16, Int32, Int64,
			UInt8, UInt16, UInt32, UInt64,
			String,
		}))
	})

	It("does not let callers modify the type list", func() {
		types := TagTypes()
		types[0] = String
		Expect(TagTypes()[0]).To(Equal(Bit))
	})

	DescribeTable("ParseTagType",
		func(name string, expected TagType) {
			t, err := ParseTagType(name)
			Expect(err).NotTo(HaveOccurred())
			Expect(t).To(Equal(expected))
		},
		Entry("canonical", "Int32", Int32),
		Entry("lower case", "uint16", UInt16),
		Entry("padded", " Float64 ", Float64),
		Entry("logix BOOL", "BOOL", Bit),
		Entry("logix dint", "dint", Int32),
		Entry("logix REAL", "REAL", Float32),
		Entry("logix LREAL", "LREAL", Float64),
		Entry("logix STRING", "STRING", String),
	)

	It("rejects unknown names with ErrUnsupportedType", func() {
		_, err := ParseTagType("Int128")
		Expect(errors.Is(err, ErrUnsupportedType)).To(BeTrue())
	})

	It("round trips every name through String", func() {
		for _, t := range TagTypes() {
			parsed, err := ParseTagType(t.String())
			Expect(err).NotTo(HaveOccurred())
			Expect(parsed).To(Equal(t))
			Expect(t.Valid()).To(BeTrue())
		}
		Expect(TagType(42).Valid()).To(BeFalse())
		Expect(TagType(42).String()).To(Equal("TagType(42)"))
	})

	DescribeTable("CIPType",
		func(t TagType, expected gologix.CIPType) {
			Expect(t.CIPType()).To(Equal(expected))
		},
		Entry("Bit", Bit, gologix.CIPTypeBOOL),
		Entry("Int8", Int8, gologix.CIPTypeSINT),
		Entry("Int32", Int32, gologix.CIPTypeDINT),
		Entry("UInt64", UInt64, gologix.CIPTypeULINT),
		Entry("Float32", Float32, gologix.CIPTypeREAL),
		Entry("String", String, gologix.CIPTypeSTRING),
		Entry("unknown", TagType(0), gologix.CIPTypeUnknown),
	)
})
