// Copyright (c) 2026 The scaladm authors.
// SPDX-License-Identifier: Apache-2.0

package cftemplate

import (
	"sort"
	"strings"

	"github.com/scaladm/scaladm/internal/log"
)

// DefaultAMI is the pre-baked Rails AMI used when no override is given.
const DefaultAMI = "ami-55a7ea65"

// Instances lists the EC2 instance types teams may select for app servers.
var Instances = []string{
	"t1.micro", "m1.small", "m1.medium", "m1.large", "m1.xlarge",
	"m2.xlarge", "m2.2xlarge", "m2.4xlarge", "m3.xlarge", "m3.2xlarge",
}

// Builder assembles a stack template from the feature toggles.
//
// Fields:
//   - AMI: image for the app server instance(s); DefaultAMI when empty.
//   - Memcached: add a dedicated memcached instance.
//   - Multi: move the database to its own RDS instance, allow a variable
//     number of app servers, and front them with an ELB.
//   - Puma: serve the app with puma instead of `rails s` (WEBrick).
//   - Teams: team name to security group id, used for the TeamName parameter
//     whitelist and the Teams mapping.
type Builder struct {
	AMI       string
	Memcached bool
	Multi     bool
	Puma      bool
	Teams     map[string]string
}

// Name returns the deterministic template name for this flag combination,
// e.g. "default", "memcached-multi", "multi-puma".
func (b *Builder) Name() string {
	var parts []string
	if b.Memcached {
		parts = append(parts, "memcached")
	}
	if b.Multi {
		parts = append(parts, "multi")
	}
	if b.Puma {
		parts = append(parts, "puma")
	}
	if len(parts) == 0 {
		return "default"
	}
	return strings.Join(parts, "-")
}

// Generate builds the stack template and renders it as JSON.
func (b *Builder) Generate() ([]byte, error) {
	t := NewTemplate()

	b.addCommonParameters(t)

	var url map[string]any
	if b.Multi {
		b.addMultiResources(t)
		url = GetAtt("LoadBalancer", "DNSName")
	} else {
		b.addAppServer(t, "AppServer")
		url = GetAtt("AppServer", "PublicDnsName")
	}

	if b.Memcached {
		b.addMemcached(t)
	}

	t.Outputs["URL"] = Output{
		Description: "The URL to the rails application.",
		Value:       Join("", "http://", url),
	}

	log.Debugf("template built: name=%s resources=%d", b.Name(), len(t.Resources))
	return t.JSON()
}

func (b *Builder) ami() string {
	if b.AMI != "" {
		return b.AMI
	}
	return DefaultAMI
}

// teamNames returns the sorted team whitelist for the TeamName parameter.
func (b *Builder) teamNames() []string {
	names := make([]string, 0, len(b.Teams))
	for name := range b.Teams {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (b *Builder) addCommonParameters(t *Template) {
	t.Parameters["AppInstanceType"] = Parameter{
		Type:                  "String",
		AllowedValues:         Instances,
		ConstraintDescription: "Must be a valid t1, m1, m2, or m3 EC2 instance type.",
		Default:               "t1.micro",
		Description:           "The AppServer instance type.",
	}
	t.Parameters["Branch"] = Parameter{
		Type:        "String",
		Default:     "master",
		Description: "The git branch to deploy.",
	}
	t.Parameters["TeamName"] = Parameter{
		Type:                  "String",
		AllowedValues:         b.teamNames(),
		ConstraintDescription: "Must exactly match your team name as shown in your Github URL.",
		Description:           "Your team name.",
	}
}

// appUserData builds the instance bootstrap script. The deploy steps differ
// only in the process serving the app: puma standalone or `rails s`.
func (b *Builder) appUserData() map[string]any {
	server := "rails s -d"
	if b.Puma {
		server = "puma -d -p 3000"
	}
	return Base64(Join("",
		"#!/bin/bash -v\n",
		"cd /home/ec2-user/app\n",
		"sudo -u ec2-user git fetch origin\n",
		"sudo -u ec2-user git checkout ", Ref("Branch"), "\n",
		"sudo -u ec2-user git pull origin ", Ref("Branch"), "\n",
		"sudo -u ec2-user bundle install --deployment\n",
		"sudo -u ec2-user rake db:migrate\n",
		"sudo -u ec2-user ", server, "\n",
	))
}

// addAppServer adds a standalone app server instance that also hosts MySQL.
func (b *Builder) addAppServer(t *Template, name string) {
	t.Resources[name] = Resource{
		Type: "AWS::EC2::Instance",
		Properties: map[string]any{
			"ImageId":        b.ami(),
			"InstanceType":   Ref("AppInstanceType"),
			"KeyName":        Ref("TeamName"),
			"SecurityGroups": []any{Ref("TeamName")},
			"Tags": []any{
				map[string]any{"Key": "Name", "Value": Ref("TeamName")},
			},
			"UserData": b.appUserData(),
		},
	}
}

// addMultiResources adds the load balanced topology: ELB in front of an
// autoscaling group of app servers, with the database on its own RDS
// instance.
func (b *Builder) addMultiResources(t *Template) {
	t.Parameters["AppInstances"] = Parameter{
		Type:        "Number",
		Default:     2,
		Description: "The number of AppServer instances to launch.",
		MaxValue:    IntPtr(8),
		MinValue:    IntPtr(1),
	}
	dbTypes := make([]string, len(Instances))
	for i, it := range Instances {
		dbTypes[i] = "db." + it
	}
	t.Parameters["DBInstanceType"] = Parameter{
		Type:                  "String",
		AllowedValues:         dbTypes,
		ConstraintDescription: "Must be a valid db.t1, db.m1, db.m2, or db.m3 instance type.",
		Default:               "db.t1.micro",
		Description:           "The Database instance type.",
	}

	t.Mappings = map[string]map[string]any{"Teams": {}}
	for team, sg := range b.Teams {
		t.Mappings["Teams"][team] = map[string]any{"sg": sg}
	}

	t.Resources["LoadBalancer"] = Resource{
		Type: "AWS::ElasticLoadBalancing::LoadBalancer",
		Properties: map[string]any{
			"AvailabilityZones": map[string]any{"Fn::GetAZs": ""},
			"LoadBalancerName":  Ref("TeamName"),
			"Listeners": []any{
				map[string]any{
					"InstancePort":     "3000",
					"LoadBalancerPort": "80",
					"Protocol":         "HTTP",
				},
			},
			"HealthCheck": map[string]any{
				"HealthyThreshold":   "2",
				"Interval":           "30",
				"Target":             "TCP:3000",
				"Timeout":            "5",
				"UnhealthyThreshold": "5",
			},
		},
	}

	t.Resources["AppServerLaunchConfig"] = Resource{
		Type: "AWS::AutoScaling::LaunchConfiguration",
		Properties: map[string]any{
			"ImageId":        b.ami(),
			"InstanceType":   Ref("AppInstanceType"),
			"KeyName":        Ref("TeamName"),
			"SecurityGroups": []any{FindInMap("Teams", Ref("TeamName"), "sg")},
			"UserData":       b.appUserData(),
		},
	}

	t.Resources["AppServerGroup"] = Resource{
		Type: "AWS::AutoScaling::AutoScalingGroup",
		Properties: map[string]any{
			"AvailabilityZones":       map[string]any{"Fn::GetAZs": ""},
			"DesiredCapacity":         Ref("AppInstances"),
			"LaunchConfigurationName": Ref("AppServerLaunchConfig"),
			"LoadBalancerNames":       []any{Ref("LoadBalancer")},
			"MaxSize":                 "8",
			"MinSize":                 "1",
			"Tags": []any{
				map[string]any{
					"Key":               "Name",
					"PropagateAtLaunch": true,
					"Value":             Ref("TeamName"),
				},
			},
		},
	}

	t.Resources["Database"] = Resource{
		Type: "AWS::RDS::DBInstance",
		Properties: map[string]any{
			"AllocatedStorage":     "5",
			"DBInstanceClass":      Ref("DBInstanceType"),
			"DBInstanceIdentifier": Ref("TeamName"),
			"DBName":               "appdb",
			"Engine":               "mysql",
			"MasterUsername":       "root",
			"MasterUserPassword":   "password",
			"MultiAZ":              false,
		},
	}
}

// addMemcached adds a dedicated memcached instance and exposes its endpoint.
func (b *Builder) addMemcached(t *Template) {
	t.Resources["Memcached"] = Resource{
		Type: "AWS::EC2::Instance",
		Properties: map[string]any{
			"ImageId":        b.ami(),
			"InstanceType":   Ref("AppInstanceType"),
			"KeyName":        Ref("TeamName"),
			"SecurityGroups": []any{Ref("TeamName")},
			"Tags": []any{
				map[string]any{
					"Key":   "Name",
					"Value": Join("-", Ref("TeamName"), "memcached"),
				},
			},
			"UserData": Base64(Join("",
				"#!/bin/bash -v\n",
				"sudo service memcached start\n",
			)),
		},
	}
	t.Outputs["MemcachedEndpoint"] = Output{
		Description: "The memcached server address.",
		Value:       Join(":", GetAtt("Memcached", "PublicDnsName"), "11211"),
	}
}
