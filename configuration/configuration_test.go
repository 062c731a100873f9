package configuration

import (
	"strings"
	"testing"

	. "github.com/fulldump/biff"
)

func TestDefault_IsValid(t *testing.T) {

	c := Default()

	AssertNil(c.Validate())
	AssertEqual(c.Total(), 10)
	AssertEqual(c.PColumn, 6)
	AssertEqual(c.SColumn, 10)
	AssertEqual(c.MagColumn, 23)
}

func TestValidate(t *testing.T) {

	cases := map[string]func(c *Configuration){
		"no signal table": func(c *Configuration) { c.SignalCsv = "" },
		"no noise store":  func(c *Configuration) { c.NoiseStore = "" },
		"no prefix":       func(c *Configuration) { c.Prefix = "" },
		"negative train":  func(c *Configuration) { c.Train = -1 },
		"nothing to pick": func(c *Configuration) { c.Train, c.Test = 0, 0 },
		"negative channel": func(c *Configuration) {
			c.Project = true
			c.Channel = -1
		},
		"no separator":    func(c *Configuration) { c.Separator = "" },
		"negative column": func(c *Configuration) { c.MagColumn = -3 },
	}

	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			c := Default()
			mutate(c)
			AssertNotNil(c.Validate())
		})
	}
}

func TestValidate_ZeroIsAccepted(t *testing.T) {

	c := Default()
	c.Test = 0
	c.Channel = 0
	c.PColumn = 0
	AssertNil(c.Validate())

	c.Train = -1
	err := c.Validate()
	AssertNotNil(err)
	AssertTrue(strings.Contains(err.Error(), "must not be negative"))
}
