package env_test

import (
	"fmt"
	"testing"

	"github.com/gruntwork-io/partools/pkg/env"
	"github.com/stretchr/testify/assert"
)

func TestGetIntEnv(t *testing.T) {
	testCases := []struct {
		envVarValue string
		fallback    int
		expected    int
		positive    int
	}{
		{"10", 20, 10, 10},
		{"0", 30, 0, 30},
		{"-4", 30, -4, 30},
		{"", 5, 5, 5},
		{" 7 ", 5, 7, 7},
		{"foo", 15, 15, 15},
	}

	for i, tc := range testCases {
		t.Run(fmt.Sprintf("testCase-%d", i), func(t *testing.T) {
			key := fmt.Sprintf("PARTOOLS_TEST_INT_%d", i)
			t.Setenv(key, tc.envVarValue)

			assert.Equal(t, tc.expected, env.GetIntEnv(key, tc.fallback))
			assert.Equal(t, tc.positive, env.GetPositiveIntEnv(key, tc.fallback))
		})
	}
}

