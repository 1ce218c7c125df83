// Copyright (c) 2026 The scaladm authors.
// SPDX-License-Identifier: Apache-2.0

package aws

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"math/big"
	"os"
	"sort"
	"strings"
	"time"

	awsv2 "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation"
	cftypes "github.com/aws/aws-sdk-go-v2/service/cloudformation/types"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/aws/aws-sdk-go-v2/service/iam"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"

	"github.com/scaladm/scaladm/internal/log"
	"github.com/scaladm/scaladm/internal/policy"
)

// DefaultInstanceTypes lists the EC2 instance types teams may launch.
var DefaultInstanceTypes = []string{"t1.micro", "m1.small"}

// Defaults applied when neither flags nor the config file say otherwise.
const (
	DefaultGroup   = "scalable-admin"
	DefaultProfile = "admin"
	DefaultRegion  = "us-west-2"
)

// openPorts are opened to the world on every team security group.
var openPorts = []int32{22, 80, 443}

// iamAPI is the subset of the IAM client used by Admin. Narrow interfaces
// keep the fakes in tests small.
type iamAPI interface {
	AddUserToGroup(ctx context.Context, params *iam.AddUserToGroupInput, optFns ...func(*iam.Options)) (*iam.AddUserToGroupOutput, error)
	CreateAccessKey(ctx context.Context, params *iam.CreateAccessKeyInput, optFns ...func(*iam.Options)) (*iam.CreateAccessKeyOutput, error)
	CreateGroup(ctx context.Context, params *iam.CreateGroupInput, optFns ...func(*iam.Options)) (*iam.CreateGroupOutput, error)
	CreateLoginProfile(ctx context.Context, params *iam.CreateLoginProfileInput, optFns ...func(*iam.Options)) (*iam.CreateLoginProfileOutput, error)
	CreateUser(ctx context.Context, params *iam.CreateUserInput, optFns ...func(*iam.Options)) (*iam.CreateUserOutput, error)
	DeleteAccessKey(ctx context.Context, params *iam.DeleteAccessKeyInput, optFns ...func(*iam.Options)) (*iam.DeleteAccessKeyOutput, error)
	DeleteLoginProfile(ctx context.Context, params *iam.DeleteLoginProfileInput, optFns ...func(*iam.Options)) (*iam.DeleteLoginProfileOutput, error)
	DeleteUser(ctx context.Context, params *iam.DeleteUserInput, optFns ...func(*iam.Options)) (*iam.DeleteUserOutput, error)
	DeleteUserPolicy(ctx context.Context, params *iam.DeleteUserPolicyInput, optFns ...func(*iam.Options)) (*iam.DeleteUserPolicyOutput, error)
	ListAccessKeys(ctx context.Context, params *iam.ListAccessKeysInput, optFns ...func(*iam.Options)) (*iam.ListAccessKeysOutput, error)
	PutGroupPolicy(ctx context.Context, params *iam.PutGroupPolicyInput, optFns ...func(*iam.Options)) (*iam.PutGroupPolicyOutput, error)
	PutUserPolicy(ctx context.Context, params *iam.PutUserPolicyInput, optFns ...func(*iam.Options)) (*iam.PutUserPolicyOutput, error)
	RemoveUserFromGroup(ctx context.Context, params *iam.RemoveUserFromGroupInput, optFns ...func(*iam.Options)) (*iam.RemoveUserFromGroupOutput, error)
}

// ec2API is the subset of the EC2 client used by Admin.
type ec2API interface {
	AuthorizeSecurityGroupIngress(ctx context.Context, params *ec2.AuthorizeSecurityGroupIngressInput, optFns ...func(*ec2.Options)) (*ec2.AuthorizeSecurityGroupIngressOutput, error)
	CreateKeyPair(ctx context.Context, params *ec2.CreateKeyPairInput, optFns ...func(*ec2.Options)) (*ec2.CreateKeyPairOutput, error)
	CreateSecurityGroup(ctx context.Context, params *ec2.CreateSecurityGroupInput, optFns ...func(*ec2.Options)) (*ec2.CreateSecurityGroupOutput, error)
	DeleteKeyPair(ctx context.Context, params *ec2.DeleteKeyPairInput, optFns ...func(*ec2.Options)) (*ec2.DeleteKeyPairOutput, error)
	DeleteSecurityGroup(ctx context.Context, params *ec2.DeleteSecurityGroupInput, optFns ...func(*ec2.Options)) (*ec2.DeleteSecurityGroupOutput, error)
	DescribeSecurityGroups(ctx context.Context, params *ec2.DescribeSecurityGroupsInput, optFns ...func(*ec2.Options)) (*ec2.DescribeSecurityGroupsOutput, error)
}

// cloudformationAPI is the subset of the CloudFormation client used by Admin.
type cloudformationAPI interface {
	DeleteStack(ctx context.Context, params *cloudformation.DeleteStackInput, optFns ...func(*cloudformation.Options)) (*cloudformation.DeleteStackOutput, error)
	ListStacks(ctx context.Context, params *cloudformation.ListStacksInput, optFns ...func(*cloudformation.Options)) (*cloudformation.ListStacksOutput, error)
	ValidateTemplate(ctx context.Context, params *cloudformation.ValidateTemplateInput, optFns ...func(*cloudformation.Options)) (*cloudformation.ValidateTemplateOutput, error)
}

// s3API is the subset of the S3 client used by Admin.
type s3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Admin issues the administrative AWS calls. Operations are strictly
// sequential; a failed step is reported and the sequence continues.
type Admin struct {
	iam iamAPI
	ec2 ec2API
	cf  cloudformationAPI
	s3  s3API

	group         string
	instanceTypes []string
	region        string
	out           io.Writer
}

// AdminOptions configures NewAdmin. Zero values fall back to the package
// defaults.
type AdminOptions struct {
	Group   string
	Profile string
	Region  string
	Out     io.Writer
}

// NewAdmin loads AWS config and constructs the service clients.
func NewAdmin(ctx context.Context, o AdminOptions) (*Admin, error) {
	if o.Group == "" {
		o.Group = DefaultGroup
	}
	if o.Profile == "" {
		o.Profile = DefaultProfile
	}
	if o.Region == "" {
		o.Region = DefaultRegion
	}
	if o.Out == nil {
		o.Out = os.Stdout
	}

	cfg, err := LoadAWSConfig(ctx, WithProfile(o.Profile), WithRegion(o.Region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &Admin{
		iam:           iam.NewFromConfig(cfg),
		ec2:           ec2.NewFromConfig(cfg),
		cf:            cloudformation.NewFromConfig(cfg),
		s3:            s3.NewFromConfig(cfg),
		group:         o.Group,
		instanceTypes: DefaultInstanceTypes,
		region:        o.Region,
		out:           o.Out,
	}, nil
}

// step reports the outcome of a single API call and returns whether it
// succeeded. Duplicate-entity failures are reported as existing resources so
// re-runs read cleanly; any other failure prints the API error message and
// the caller proceeds to the next step. Nothing retries.
func (a *Admin) step(op, detail string, err error) bool {
	if err == nil {
		fmt.Fprintf(a.out, "Success: %s %s\n", op, detail)
		return true
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		if isDuplicate(apiErr.ErrorCode()) {
			fmt.Fprintf(a.out, "Exists: %s %s\n", op, detail)
		} else {
			fmt.Fprintf(a.out, "Failed: %s %s: %s\n", op, detail, apiErr.ErrorMessage())
		}
	} else {
		fmt.Fprintf(a.out, "Failed: %s %s: %v\n", op, detail, err)
	}
	log.Debugf("step failed: op=%s detail=%s err=%v", op, detail, err)
	return false
}

// isDuplicate recognizes the already-exists error codes raised when Configure
// is re-run against a provisioned team.
func isDuplicate(code string) bool {
	switch code {
	case "EntityAlreadyExists",
		"InvalidGroup.Duplicate",
		"InvalidKeyPair.Duplicate",
		"InvalidPermission.Duplicate":
		return true
	}
	return false
}

// Configure creates the account and settings for a team. It can be run
// subsequent times to apply team updates; only the credential steps are
// skipped for an existing user.
func (a *Admin) Configure(ctx context.Context, team string) error {
	groupDoc, err := policy.Group(a.region).JSON()
	if err != nil {
		return err
	}

	// Course group and its shared policy.
	_, err = a.iam.CreateGroup(ctx, &iam.CreateGroupInput{
		GroupName: awsv2.String(a.group)})
	a.step("CreateGroup", a.group, err)

	_, err = a.iam.PutGroupPolicy(ctx, &iam.PutGroupPolicyInput{
		GroupName:      awsv2.String(a.group),
		PolicyName:     awsv2.String(a.group),
		PolicyDocument: awsv2.String(groupDoc)})
	a.step("PutGroupPolicy", a.group, err)

	// User account, password, access keys and keypair. Credentials are only
	// issued when the user was just created; re-runs keep the existing ones.
	_, err = a.iam.CreateUser(ctx, &iam.CreateUserInput{
		UserName: awsv2.String(team)})
	if a.step("CreateUser", team, err) {
		a.issueCredentials(ctx, team)
	}

	_, err = a.iam.AddUserToGroup(ctx, &iam.AddUserToGroupInput{
		GroupName: awsv2.String(a.group),
		UserName:  awsv2.String(team)})
	a.step("AddUserToGroup", team, err)

	a.configureSecurityGroup(ctx, team)

	teamDoc, err := policy.Team(a.region, team, a.instanceTypes).JSON()
	if err != nil {
		return err
	}
	_, err = a.iam.PutUserPolicy(ctx, &iam.PutUserPolicyInput{
		UserName:       awsv2.String(team),
		PolicyName:     awsv2.String(team),
		PolicyDocument: awsv2.String(teamDoc)})
	a.step("PutUserPolicy", team, err)

	return nil
}

// issueCredentials creates the login profile, access key and EC2 keypair for
// a newly created user and prints the secrets exactly once.
func (a *Admin) issueCredentials(ctx context.Context, team string) {
	password, err := GeneratePassword(16)
	if err != nil {
		// No password, no login profile; the failure still gets a line.
		a.step("CreateLoginProfile", team, err)
	} else {
		_, err = a.iam.CreateLoginProfile(ctx, &iam.CreateLoginProfileInput{
			UserName: awsv2.String(team),
			Password: awsv2.String(password)})
		if a.step("CreateLoginProfile", team, err) {
			fmt.Fprintf(a.out, "Password: %s\n", password)
		}
	}

	keyOut, err := a.iam.CreateAccessKey(ctx, &iam.CreateAccessKeyInput{
		UserName: awsv2.String(team)})
	if a.step("CreateAccessKey", team, err) {
		fmt.Fprintf(a.out, "AccessKey: %s\n", awsv2.ToString(keyOut.AccessKey.AccessKeyId))
		fmt.Fprintf(a.out, "SecretKey: %s\n", awsv2.ToString(keyOut.AccessKey.SecretAccessKey))
	}

	kpOut, err := a.ec2.CreateKeyPair(ctx, &ec2.CreateKeyPairInput{
		KeyName: awsv2.String(team)})
	if a.step("CreateKeyPair", team, err) {
		filename := team + ".pem"
		if werr := os.WriteFile(filename, []byte(awsv2.ToString(kpOut.KeyMaterial)), 0o600); werr == nil {
			fmt.Fprintf(a.out, "Keypair saved as: %s\n", filename)
		} else {
			fmt.Fprintf(a.out, "Failed to save keypair: %v\n", werr)
		}
	}
}

// configureSecurityGroup creates the team security group, opens the standard
// ports to all addresses and permits instances in the group to talk to each
// other.
func (a *Admin) configureSecurityGroup(ctx context.Context, team string) {
	_, err := a.ec2.CreateSecurityGroup(ctx, &ec2.CreateSecurityGroupInput{
		GroupName:   awsv2.String(team),
		Description: awsv2.String(team)})
	a.step("CreateSecurityGroup", team, err)

	// One rule per call so one existing rule doesn't block the others.
	for _, port := range openPorts {
		_, err := a.ec2.AuthorizeSecurityGroupIngress(ctx, &ec2.AuthorizeSecurityGroupIngressInput{
			GroupName: awsv2.String(team),
			IpPermissions: []ec2types.IpPermission{{
				IpProtocol: awsv2.String("tcp"),
				FromPort:   awsv2.Int32(port),
				ToPort:     awsv2.Int32(port),
				IpRanges:   []ec2types.IpRange{{CidrIp: awsv2.String("0.0.0.0/0")}},
			}}})
		a.step("AuthorizeSecurityGroupIngress", fmt.Sprintf("%s:%d", team, port), err)
	}

	_, err = a.ec2.AuthorizeSecurityGroupIngress(ctx, &ec2.AuthorizeSecurityGroupIngressInput{
		GroupName: awsv2.String(team),
		IpPermissions: []ec2types.IpPermission{{
			IpProtocol: awsv2.String("-1"),
			FromPort:   awsv2.Int32(0),
			ToPort:     awsv2.Int32(65535),
			UserIdGroupPairs: []ec2types.UserIdGroupPair{{
				GroupName: awsv2.String(team)}},
		}}})
	a.step("AuthorizeSecurityGroupIngress", team+":intra", err)
}

// Stack describes a CloudFormation stack considered for cleanup.
type Stack struct {
	Name    string
	Status  string
	Created time.Time
}

// Cleanup deletes stacks older than maxAge. With dryRun the candidates are
// returned instead of deleted.
func (a *Admin) Cleanup(ctx context.Context, maxAge time.Duration, dryRun bool) ([]Stack, error) {
	now := time.Now().UTC()

	var candidates []Stack
	var next *string
	for {
		out, err := a.cf.ListStacks(ctx, &cloudformation.ListStacksInput{
			NextToken: next})
		if err != nil {
			return nil, fmt.Errorf("failed to list stacks: %w", err)
		}

		for _, stack := range out.StackSummaries {
			if stack.StackStatus == cftypes.StackStatusDeleteComplete {
				continue
			}
			created := awsv2.ToTime(stack.CreationTime)
			if now.Sub(created) <= maxAge {
				continue
			}
			candidates = append(candidates, Stack{
				Name:    awsv2.ToString(stack.StackName),
				Status:  string(stack.StackStatus),
				Created: created,
			})
		}

		if out.NextToken == nil {
			break
		}
		next = out.NextToken
	}

	if dryRun {
		return candidates, nil
	}

	for _, stack := range candidates {
		_, err := a.cf.DeleteStack(ctx, &cloudformation.DeleteStackInput{
			StackName: awsv2.String(stack.Name)})
		a.step("DeleteStack", stack.Name, err)
	}
	return candidates, nil
}

// Purge removes all settings pertaining to team. Every step runs regardless
// of earlier failures so a partially provisioned team can still be removed.
func (a *Admin) Purge(ctx context.Context, team string) error {
	_, err := a.iam.DeleteLoginProfile(ctx, &iam.DeleteLoginProfileInput{
		UserName: awsv2.String(team)})
	a.step("DeleteLoginProfile", team, err)

	_, err = a.iam.DeleteUserPolicy(ctx, &iam.DeleteUserPolicyInput{
		UserName:   awsv2.String(team),
		PolicyName: awsv2.String(team)})
	a.step("DeleteUserPolicy", team, err)

	keys, err := a.iam.ListAccessKeys(ctx, &iam.ListAccessKeysInput{
		UserName: awsv2.String(team)})
	if a.step("ListAccessKeys", team, err) {
		for _, key := range keys.AccessKeyMetadata {
			_, err := a.iam.DeleteAccessKey(ctx, &iam.DeleteAccessKeyInput{
				UserName:    awsv2.String(team),
				AccessKeyId: key.AccessKeyId})
			a.step("DeleteAccessKey", awsv2.ToString(key.AccessKeyId), err)
		}
	}

	_, err = a.iam.RemoveUserFromGroup(ctx, &iam.RemoveUserFromGroupInput{
		GroupName: awsv2.String(a.group),
		UserName:  awsv2.String(team)})
	a.step("RemoveUserFromGroup", team, err)

	_, err = a.iam.DeleteUser(ctx, &iam.DeleteUserInput{
		UserName: awsv2.String(team)})
	a.step("DeleteUser", team, err)

	_, err = a.ec2.DeleteKeyPair(ctx, &ec2.DeleteKeyPairInput{
		KeyName: awsv2.String(team)})
	a.step("DeleteKeyPair", team, err)

	_, err = a.ec2.DeleteSecurityGroup(ctx, &ec2.DeleteSecurityGroupInput{
		GroupName: awsv2.String(team)})
	a.step("DeleteSecurityGroup", team, err)

	return nil
}

// SecurityGroup pairs a team name with its security group id.
type SecurityGroup struct {
	Team string `json:"team"`
	ID   string `json:"sg"`
}

// TeamSecurityGroups returns the team security groups sorted by team name.
// The listing feeds the cftemplate team map and the aws-update-all command.
func (a *Admin) TeamSecurityGroups(ctx context.Context) ([]SecurityGroup, error) {
	out, err := a.ec2.DescribeSecurityGroups(ctx, &ec2.DescribeSecurityGroupsInput{})
	if err != nil {
		return nil, fmt.Errorf("failed to describe security groups: %w", err)
	}

	var groups []SecurityGroup
	for _, sg := range out.SecurityGroups {
		name := awsv2.ToString(sg.GroupName)
		if name == "default" {
			continue
		}
		groups = append(groups, SecurityGroup{
			Team: name,
			ID:   awsv2.ToString(sg.GroupId),
		})
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].Team < groups[j].Team })
	return groups, nil
}

// VerifyTemplate validates a CloudFormation template body.
func (a *Admin) VerifyTemplate(ctx context.Context, body []byte) error {
	_, err := a.cf.ValidateTemplate(ctx, &cloudformation.ValidateTemplateInput{
		TemplateBody: awsv2.String(string(body))})
	if !a.step("ValidateTemplate", "", err) {
		return fmt.Errorf("template validation failed: %w", err)
	}
	return nil
}

// UploadTemplate puts a rendered template into the course bucket.
func (a *Admin) UploadTemplate(ctx context.Context, bucket, name string, body []byte) error {
	key := name + ".json"
	_, err := a.s3.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      awsv2.String(bucket),
		Key:         awsv2.String(key),
		Body:        strings.NewReader(string(body)),
		ContentType: awsv2.String("application/json")})
	if !a.step("PutObject", bucket+"/"+key, err) {
		return fmt.Errorf("template upload failed: %w", err)
	}
	return nil
}

const passwordAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// randReader is the entropy source for GeneratePassword, swappable in tests.
var randReader io.Reader = rand.Reader

// GeneratePassword returns a random password of the given length drawn from
// letters and digits.
func GeneratePassword(length int) (string, error) {
	b := make([]byte, length)
	alphabetLen := big.NewInt(int64(len(passwordAlphabet)))
	for i := range b {
		n, err := rand.Int(randReader, alphabetLen)
		if err != nil {
			return "", fmt.Errorf("failed to generate password: %w", err)
		}
		b[i] = passwordAlphabet[n.Int64()]
	}
	return string(b), nil
}
