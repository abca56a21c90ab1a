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
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	. "github.com/united-manufacturing-hub/benthos-plctag/pkg/plctag"
)

var _ = Describe("SessionPool", func() {
	var (
		transport *MockTransport
		pool      *SessionPool
		req       TagRequest
	)

	BeforeEach(func() {
		transport = NewMockTransport(map[string]any{"Counter": int32(1), "Other": int32(2)})

		var err error
		pool, err = NewSessionPool(transport, 1)
		Expect(err).NotTo(HaveOccurred())

		req = TagRequest{
			TagName:    "Counter",
			Type:       Int32,
			Connection: NewConnectionDescriptor("10.0.0.5", 1, 0, time.Second),
		}
	})

	AfterEach(func() {
		Expect(pool.Close()).To(Succeed())
	})

	It("rejects a non-positive size", func() {
		_, err := NewSessionPool(transport, 0)
		Expect(err).To(HaveOccurred())
	})

	It("reuses the session across dispatcher calls", func() {
		dispatcher := NewDispatcher(pool, nil)

		for i := 0; i < 3; i++ {
			value, err := dispatcher.Read(req)
			Expect(err).NotTo(HaveOccurred())
			Expect(value).To(Equal("1"))
		}

		Expect(transport.SessionsOpened()).To(Equal(1))
		Expect(transport.Closed).To(Equal(0))
		Expect(pool.Idle()).To(Equal(1))
	})

	It("closes the evicted session when another tag takes its place", func() {
		dispatcher := NewDispatcher(pool, nil)

		_, err := dispatcher.Read(req)
		Expect(err).NotTo(HaveOccurred())

		other := req
		other.TagName = "Other"
		_, err = dispatcher.Read(other)
		Expect(err).NotTo(HaveOccurred())

		Expect(transport.SessionsOpened()).To(Equal(2))
		Expect(transport.Closed).To(Equal(1))
	})

	It("discards a session whose read failed", func() {
		dispatcher := NewDispatcher(pool, nil)
		transport.ReadErr = errors.New("connection reset by peer")

		_, err := dispatcher.Read(req)
		Expect(IsCommunicationError(err)).To(BeTrue())
		Expect(transport.Closed).To(Equal(1))
		Expect(pool.Idle()).To(Equal(0))
	})

	It("closes idle sessions and refuses new ones once closed", func() {
		dispatcher := NewDispatcher(pool, nil)
		_, err := dispatcher.Read(req)
		Expect(err).NotTo(HaveOccurred())

		Expect(pool.Close()).To(Succeed())
		Expect(transport.Closed).To(Equal(1))

		_, err = dispatcher.Read(req)
		Expect(IsCommunicationError(err)).To(BeTrue())
	})

	It("keeps parse failures away from the pool", func() {
		dispatcher := NewDispatcher(pool, nil)
		Expect(IsParseError(dispatcher.Write(req, "abc"))).To(BeTrue())
		Expect(transport.SessionsOpened()).To(Equal(0))
	})
})
