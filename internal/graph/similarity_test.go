package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompositeSimilarityIdentical(t *testing.T) {
	assert.Equal(t, 1.0, compositeSimilarity("Project Plan", "Project Plan"))
}

func TestCompositeSimilarityCloseVariants(t *testing.T) {
	sim := compositeSimilarity("project-plan", "project plan")
	assert.Greater(t, sim, 0.7)
}

func TestCompositeSimilarityUnrelated(t *testing.T) {
	sim := compositeSimilarity("project plan", "grocery list")
	assert.Less(t, sim, 0.5)
}

func TestContainmentRatio(t *testing.T) {
	assert.Greater(t, containmentRatio("plan", "project plan"), 0.0)
	assert.Equal(t, 0.0, containmentRatio("xyz", "project plan"))
}

func TestClusterTargetsGroupsSimilarNames(t *testing.T) {
	targets := []string{"Project Plan", "project-plan", "project_plan", "Grocery List"}
	counts := map[string]int{
		"Project Plan":  3,
		"project-plan":  2,
		"project_plan":  1,
		"Grocery List":  1,
	}

	clusters := ClusterTargets(targets, counts, DefaultClusterOptions())
	require := assert.New(t)
	require.Len(clusters, 1)
	require.Equal("Project Plan", clusters[0].Representative)
	require.ElementsMatch([]string{"Project Plan", "project-plan", "project_plan"}, clusters[0].Members)
}

func TestClusterTargetsDiscardsClustersBelowMinSize(t *testing.T) {
	targets := []string{"Alpha", "Beta", "Gamma"}
	counts := map[string]int{"Alpha": 1, "Beta": 1, "Gamma": 1}

	clusters := ClusterTargets(targets, counts, DefaultClusterOptions())
	assert.Empty(t, clusters)
}

func TestClusterTargetsEmptyInput(t *testing.T) {
	assert.Nil(t, ClusterTargets(nil, nil, DefaultClusterOptions()))
}

func TestClusterTargetsRespectsMaxResults(t *testing.T) {
	opts := ClusterOptions{Threshold: 0.99, MinClusterSize: 1, MaxResults: 1}
	targets := []string{"a", "b", "c", "d"}
	counts := map[string]int{"a": 1, "b": 2, "c": 3, "d": 4}

	clusters := ClusterTargets(targets, counts, opts)
	assert.Len(t, clusters, 1)
}

func TestTokenizeStripsKoreanParticles(t *testing.T) {
	tokens := tokenize("프로젝트는 계획")
	assert.Contains(t, tokens, "프로젝트")
}
