package placing_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestPlacing(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Placing Suite")
}
