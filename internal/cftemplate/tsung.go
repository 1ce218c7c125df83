// Copyright (c) 2026 The scaladm authors.
// SPDX-License-Identifier: Apache-2.0

package cftemplate

// TsungBuilder assembles the load-generator template. Tsung stacks are
// launched by course staff against team deployments, so the template has no
// team parameter and opens the tsung web console instead of an app URL.
type TsungBuilder struct {
	AMI string
}

// Name returns the template name for uploads.
func (b *TsungBuilder) Name() string {
	return "tsung"
}

// Generate builds the tsung template and renders it as JSON.
func (b *TsungBuilder) Generate() ([]byte, error) {
	t := NewTemplate()

	t.Parameters["InstanceType"] = Parameter{
		Type:                  "String",
		AllowedValues:         Instances,
		ConstraintDescription: "Must be a valid t1, m1, m2, or m3 EC2 instance type.",
		Default:               "m1.small",
		Description:           "The load generator instance type.",
	}
	t.Parameters["KeyName"] = Parameter{
		Type:        "String",
		Description: "The keypair used to connect to the instance.",
	}

	ami := b.AMI
	if ami == "" {
		ami = DefaultAMI
	}
	t.Resources["LoadGenerator"] = Resource{
		Type: "AWS::EC2::Instance",
		Properties: map[string]any{
			"ImageId":      ami,
			"InstanceType": Ref("InstanceType"),
			"KeyName":      Ref("KeyName"),
			"Tags": []any{
				map[string]any{"Key": "Name", "Value": "tsung"},
			},
			"UserData": Base64(Join("",
				"#!/bin/bash -v\n",
				"sudo -u ec2-user tsung -k start\n",
			)),
		},
	}

	t.Outputs["URL"] = Output{
		Description: "The URL to the tsung web console.",
		Value: Join("", "http://",
			GetAtt("LoadGenerator", "PublicDnsName"), ":8091"),
	}

	return t.JSON()
}
