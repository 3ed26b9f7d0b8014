package github

// RepositoryCountQuery returns search.repositoryCount plus a rate-limit
// snapshot, used by the range planner (C3) to size candidate intervals.
const RepositoryCountQuery = `
query ($query: String!) {
  rateLimit {
    cost
    remaining
    resetAt
  }
  search(query: $query, type: REPOSITORY, first: 1) {
    repositoryCount
  }
}
`

// RepositorySearchQuery pages through matching repositories, used by the
// crawl engine's producers. The field selection matches RepositoryRecord.
const RepositorySearchQuery = `
query ($query: String!, $first: Int!, $after: String) {
  rateLimit {
    cost
    remaining
    resetAt
  }
  search(query: $query, type: REPOSITORY, first: $first, after: $after) {
    repositoryCount
    pageInfo {
      hasNextPage
      endCursor
    }
    nodes {
      ...RepositoryFields
    }
  }
}

fragment RepositoryFields on Repository {
  id
  databaseId
  name
  nameWithOwner
  description
  stargazerCount
  forkCount
  isPrivate
  isFork
  isArchived
  createdAt
  updatedAt
  pushedAt
  owner {
    login
    __typename
  }
  watchers {
    totalCount
  }
  issues(states: OPEN) {
    totalCount
  }
  primaryLanguage {
    name
  }
}
`
