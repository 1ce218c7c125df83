// Copyright (c) 2026 The scaladm authors.
// SPDX-License-Identifier: Apache-2.0

package policy

import (
	"encoding/json"
	"fmt"
)

// Version is the IAM policy language version used by every document.
const Version = "2012-10-17"

// IAM condition operator constants. Using named constants as Condition map
// keys prevents typos from silently producing an ineffective statement.
const (
	Bool          = "Bool"
	NumericEquals = "NumericEquals"
	StringEquals  = "StringEquals"
	StringLike    = "StringLike"
)

// Json is a shorthand for map[string]any, used for inline Condition blocks.
type Json = map[string]any

// Document represents an IAM policy document.
type Document struct {
	Version   string      `json:"Version"`
	Statement []Statement `json:"Statement"`
}

// Statement represents a single IAM policy statement. Action and Resource
// accept either a string or a []string, matching the policy language.
type Statement struct {
	Sid       string `json:"Sid,omitempty"`
	Effect    string `json:"Effect"`
	Action    any    `json:"Action,omitempty"`
	Resource  any    `json:"Resource,omitempty"`
	Condition Json   `json:"Condition,omitempty"`
}

// JSON serializes the document for PutGroupPolicy/PutUserPolicy.
func (d Document) JSON() (string, error) {
	b, err := json.Marshal(d)
	if err != nil {
		return "", fmt.Errorf("failed to marshal policy document: %w", err)
	}
	return string(b), nil
}

// Region-scoped ARN builders. The account segment is left as a wildcard since
// the course runs inside a single account.

// CloudFormationARN returns a cloudformation ARN for the given suffix.
func CloudFormationARN(region, suffix string) string {
	return fmt.Sprintf("arn:aws:cloudformation:%s:*:%s", region, suffix)
}

// EC2ARN returns an ec2 ARN for the given suffix.
func EC2ARN(region, suffix string) string {
	return fmt.Sprintf("arn:aws:ec2:%s:*:%s", region, suffix)
}

// ELBARN returns a load balancer ARN for the given name pattern.
func ELBARN(region, name string) string {
	return fmt.Sprintf("arn:aws:elasticloadbalancing:%s:*:loadbalancer/%s", region, name)
}

// RDSARN returns a database instance ARN for the given name pattern.
func RDSARN(region, name string) string {
	return fmt.Sprintf("arn:aws:rds:%s:*:db:%s", region, name)
}

// Group returns the shared policy attached to the course IAM group. It grants
// the read/describe surface every team needs to operate the web console and
// debug stacks, with ec2:Describe* pinned to the course region.
func Group(region string) Document {
	return Document{
		Version: Version,
		Statement: []Statement{
			{
				// Autoscaling has no fine grained permissions.
				Action: []string{
					"autoscaling:*",
					"cloudformation:CreateUploadBucket",
					"cloudformation:Describe*",
					"cloudformation:Get*",
					"cloudformation:ListStack*",
					"cloudformation:ValidateTemplate",
					"cloudwatch:DescribeAlarms",
					"cloudwatch:GetMetricStatistics",
					"elasticloadbalancing:Describe*",
					"rds:Describe*",
					"rds:ListTagsForResource",
					"s3:Get*",
					"s3:PutObject",
					"sts:DecodeAuthorizationMessage",
				},
				Effect:   "Allow",
				Resource: "*",
			},
			{
				Action:    []string{"ec2:Describe*"},
				Condition: Json{StringEquals: Json{"ec2:Region": region}},
				Effect:    "Allow",
				Resource:  "*",
			},
		},
	}
}

// Team returns the per-team user policy. Teams may manage stacks, instances,
// load balancers and databases whose names begin with the team name, launch
// only whitelisted instance types, and create only small single-AZ MySQL
// databases.
func Team(region, team string, instanceTypes []string) Document {
	dbTypes := make([]string, len(instanceTypes))
	for i, it := range instanceTypes {
		dbTypes[i] = "db." + it
	}

	return Document{
		Version: Version,
		Statement: []Statement{
			// State-based permissions.
			{
				Action: []string{
					"cloudformation:CreateStack",
					"cloudformation:DeleteStack",
					"cloudformation:UpdateStack",
				},
				Effect:   "Allow",
				Resource: CloudFormationARN(region, "stack/"+team+"*"),
			},
			{
				Action: []string{
					"ec2:RebootInstances",
					"ec2:StartInstances",
					"ec2:StopInstances",
					"ec2:TerminateInstances",
				},
				Condition: Json{StringLike: Json{
					"ec2:ResourceTag/aws:cloudformation:stack-name": team + "*",
				}},
				Effect:   "Allow",
				Resource: EC2ARN(region, "instance/*"),
			},
			{
				Action:   "elasticloadbalancing:*",
				Effect:   "Allow",
				Resource: ELBARN(region, team+"*"),
			},
			{
				Action:   []string{"rds:DeleteDBInstance", "rds:RebootDBInstance"},
				Effect:   "Allow",
				Resource: RDSARN(region, team+"*"),
			},
			// Creation permissions.
			{
				Action: "ec2:RunInstances",
				Effect: "Allow",
				Resource: []string{
					EC2ARN(region, "image/*"),
					EC2ARN(region, "key-pair/"+team),
					EC2ARN(region, "network-interface/*"),
					EC2ARN(region, "security-group/*"),
					EC2ARN(region, "subnet/*"),
					EC2ARN(region, "volume/*"),
				},
			},
			// Restrict the EC2 instance types that may be started.
			{
				Action:    "ec2:RunInstances",
				Condition: Json{StringLike: Json{"ec2:InstanceType": instanceTypes}},
				Effect:    "Allow",
				Resource:  EC2ARN(region, "instance/*"),
			},
			// Restrict the RDS instance classes that may be started.
			{
				Action: []string{"rds:CreateDBInstance", "rds:ModifyDBInstance"},
				Condition: Json{
					Bool:          Json{"rds:MultiAz": "false"},
					NumericEquals: Json{"rds:Piops": "0", "rds:StorageSize": "5"},
					StringEquals:  Json{"rds:DatabaseEngine": "mysql"},
					StringLike:    Json{"rds:DatabaseClass": dbTypes},
				},
				Effect:   "Allow",
				Resource: RDSARN(region, team+"*"),
			},
		},
	}
}
